package collector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hazyhaar/quantself/epoch"
	"github.com/hazyhaar/quantself/footprint/internal/locate"
	"github.com/hazyhaar/quantself/footprint/internal/store"
)

// podcastsCollector reads the Apple Podcasts Core Data library.
type podcastsCollector struct{}

func (podcastsCollector) Kind() Kind { return Podcasts }

func (podcastsCollector) Descriptor() locate.Descriptor {
	return locate.Descriptor{
		Name: string(Podcasts),
		Paths: []string{
			"~/Library/Group Containers/243LU875E5.groups.com.apple.podcasts/Documents/MTLibrary.sqlite",
			"~/Library/Application Support/Podcasts/MTLibrary.sqlite",
			"~/Library/Containers/com.apple.podcasts/Data/Library/Application Support/Podcasts/MTLibrary.sqlite",
		},
		Discover: locate.GroupContainerScan{
			Parent:  "~/Library/Group Containers",
			Pattern: "*.groups.com.apple.podcasts",
			Target:  "Documents/MTLibrary.sqlite",
		},
	}
}

func (p podcastsCollector) Extract(ctx context.Context, src *sql.DB, dst *store.Store) (Tally, error) {
	var t Tally
	if err := p.shows(ctx, src, dst, &t); err != nil {
		return t, fmt.Errorf("shows: %w", err)
	}
	if err := p.episodes(ctx, src, dst, &t); err != nil {
		return t, fmt.Errorf("episodes: %w", err)
	}
	return t, nil
}

const showsQuery = `
SELECT
    ZUUID,
    COALESCE(ZTITLE, ''),
    ZAUTHOR,
    ZFEEDURL,
    ZADDEDDATE,
    (SELECT COUNT(*) FROM ZMTEPISODE WHERE ZPODCAST = ZMTPODCAST.Z_PK)
FROM ZMTPODCAST
WHERE ZSUBSCRIBED = 1 OR ZLASTDATEPLAYED IS NOT NULL`

func (podcastsCollector) shows(ctx context.Context, src *sql.DB, dst *store.Store, t *Tally) error {
	rows, err := src.QueryContext(ctx, showsQuery)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var uuid sql.NullString
		var added sql.NullFloat64
		s := &store.PodcastShow{}
		if err := rows.Scan(&uuid, &s.Title, &s.Author, &s.FeedURL, &added, &s.EpisodeCount); err != nil {
			return fmt.Errorf("scan show: %w", err)
		}
		if !nonEmpty(uuid) {
			continue
		}
		s.RecordHash = uuid.String
		s.SubscribedAt = epoch.Apple(added)
		if err := insert(ctx, dst, t, s); err != nil {
			return err
		}
	}
	return rows.Err()
}

const episodesQuery = `
SELECT
    e.ZUUID,
    e.ZTITLE,
    p.ZTITLE,
    p.ZUUID,
    e.ZDURATION,
    e.ZPLAYHEAD,
    e.ZPLAYCOUNT,
    e.ZLASTDATEPLAYED,
    e.ZPUBDATE
FROM ZMTEPISODE e
LEFT JOIN ZMTPODCAST p ON e.ZPODCAST = p.Z_PK
WHERE e.ZPLAYCOUNT > 0 OR e.ZPLAYHEAD > 0 OR e.ZLASTDATEPLAYED IS NOT NULL
ORDER BY e.ZLASTDATEPLAYED DESC`

func (podcastsCollector) episodes(ctx context.Context, src *sql.DB, dst *store.Store, t *Tally) error {
	rows, err := src.QueryContext(ctx, episodesQuery)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var uuid sql.NullString
		var playCount sql.NullInt64
		var lastPlayed, published sql.NullFloat64
		e := &store.PodcastEpisode{}
		if err := rows.Scan(&uuid, &e.EpisodeTitle, &e.ShowTitle, &e.ShowUUID,
			&e.DurationSeconds, &e.PlayedSeconds, &playCount, &lastPlayed, &published); err != nil {
			return fmt.Errorf("scan episode: %w", err)
		}
		if !nonEmpty(uuid) {
			continue
		}
		e.RecordHash = uuid.String
		e.PlayCount = playCount.Int64
		e.LastPlayedAt = epoch.Apple(lastPlayed)
		e.PublishedAt = epoch.Apple(published)
		if err := insert(ctx, dst, t, e); err != nil {
			return err
		}
	}
	return rows.Err()
}
