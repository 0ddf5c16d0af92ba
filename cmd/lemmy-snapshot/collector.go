package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lemmylite/lemmy-lite/engine/domain"
	"github.com/lemmylite/lemmy-lite/engine/lemmy"
	"github.com/lemmylite/lemmy-lite/engine/thread"
	"github.com/lemmylite/lemmy-lite/pkg/fn"
	"github.com/lemmylite/lemmy-lite/pkg/natsutil"
)

// Snapshot is one post with its reconstructed comment tree at a point in time.
type Snapshot struct {
	Instance domain.Instance `json:"instance"`
	Post     domain.Post     `json:"post"`
	Thread   []*thread.Node  `json:"thread"`
	Comments int             `json:"comment_count"`
	TakenAt  time.Time       `json:"taken_at"`
}

// sink receives finished snapshots.
type sink func(context.Context, Snapshot) error

func stdoutSink(w io.Writer) sink {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return func(_ context.Context, s Snapshot) error {
		return enc.Encode(s)
	}
}

func natsSink(nc natsutil.Conn, subject string) sink {
	return func(ctx context.Context, s Snapshot) error {
		return natsutil.Publish(ctx, nc, subject, s)
	}
}

// collector lists one page of posts and snapshots each of them.
type collector struct {
	client    *lemmy.Client
	instance  domain.Instance
	community *string
	paging    domain.PagingParams
	workers   int
	emit      sink
	log       *slog.Logger
	now       func() time.Time
}

// runOnce returns the number of snapshots emitted. A failed listing aborts
// the run; a failed post is logged and skipped. Comment threads are fetched
// with up to workers concurrent calls and emitted in listing order.
func (c *collector) runOnce(ctx context.Context) (int, error) {
	defaultSort := lemmy.FrontPageSort
	if c.community != nil {
		defaultSort = lemmy.CommunitySort
	}
	posts, err := c.client.Posts(ctx, c.instance, c.community, c.paging, defaultSort)
	if err != nil {
		return 0, fmt.Errorf("list posts: %w", err)
	}
	c.log.Info("listed posts", "instance", c.instance, "count", len(posts))

	snaps := fn.ParMapResult(posts, c.workers, func(p domain.Post) fn.Result[Snapshot] {
		comments, err := c.client.Comments(ctx, c.instance, p.ID)
		if err != nil {
			return fn.Err[Snapshot](err)
		}
		forest := thread.Build(comments, nil)
		return fn.Ok(Snapshot{
			Instance: c.instance,
			Post:     p,
			Thread:   forest,
			Comments: thread.Count(forest),
			TakenAt:  c.now().UTC(),
		})
	})

	emitted := 0
	for i, r := range snaps {
		snap, err := r.Unwrap()
		if err != nil {
			c.log.Warn("skip post", "post_id", posts[i].ID, "err", err)
			continue
		}
		if err := c.emit(ctx, snap); err != nil {
			c.log.Warn("emit failed", "post_id", snap.Post.ID, "err", err)
			continue
		}
		emitted++
	}
	return emitted, ctx.Err()
}

// loop runs once, then on every tick until ctx ends. A zero interval means
// a single run whose error is returned.
func (c *collector) loop(ctx context.Context, interval time.Duration) error {
	if _, err := c.runOnce(ctx); err != nil {
		return err
	}
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.log.Info("shutting down")
			return nil
		case <-ticker.C:
			if _, err := c.runOnce(ctx); err != nil {
				c.log.Error("snapshot run failed", "err", err)
			}
		}
	}
}
