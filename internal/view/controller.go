package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tailtalk/roomsync/internal/domain"
	"github.com/tailtalk/roomsync/internal/rest"
	"github.com/tailtalk/roomsync/internal/room"
	"github.com/tailtalk/roomsync/pkg/log"
)

var (
	ErrNotOwner   = errors.New("only the author may edit or delete a post")
	ErrNoSuchPost = errors.New("post not present in the collection")
)

// reactionFetchConcurrency bounds the per-post reaction fan-out on load.
const reactionFetchConcurrency = 4

// Controller orchestrates one room view: the initial snapshot load and all
// transient interaction state. Transient state is never synchronized; it
// exists only while this view instance is open.
type Controller struct {
	session      *room.Session
	restc        *rest.Client
	historyLimit int
	logger       zerolog.Logger

	// Redisplay is invoked whenever held state changed and the view should
	// re-render: applied channel events and clock ticks. Optional.
	Redisplay func()

	sf singleflight.Group

	mu        sync.Mutex
	loading   bool
	closed    bool
	popover   Popover
	editingID string
	draft     string
	imageURL  string
	clockStop chan struct{}
}

// NewController wires a controller to its session. The controller registers
// itself as the session's event observer.
func NewController(session *room.Session, restc *rest.Client, historyLimit int, logger zerolog.Logger) *Controller {
	c := &Controller{
		session:      session,
		restc:        restc,
		historyLimit: historyLimit,
		logger:       logger.With().Str(log.FieldRoomID, session.RoomID()).Logger(),
	}
	session.SetObserver(c.onEvent)
	return c
}

// Session exposes the underlying room session.
func (c *Controller) Session() *room.Session { return c.session }

// Open activates the channel session and loads the initial snapshot.
func (c *Controller) Open(ctx context.Context) error {
	if err := c.session.Activate(ctx); err != nil {
		return err
	}
	return c.Load(ctx)
}

// Load fetches the bounded history window, snapshots the post collection,
// then fans out one reaction fetch per post. Results that resolve after
// Close are discarded: a closed view owns no collection to mutate.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
		c.redisplay()
	}()

	posts, err := c.restc.History(ctx, c.session.RoomID(), c.session.Kind().Name, c.historyLimit)
	if err != nil {
		c.logger.Error().Err(err).Msg("history load failed")
		return err
	}

	if c.isClosed() {
		return nil
	}
	c.session.Posts().Snapshot(posts)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(reactionFetchConcurrency)
	for _, p := range posts {
		p := p
		g.Go(func() error {
			set, err, _ := c.sf.Do(p.ID, func() (interface{}, error) {
				return c.restc.Reactions(ctx, p.ID)
			})
			if err != nil {
				return err
			}
			if c.isClosed() {
				return nil
			}
			c.session.Reactions().SetForPost(p.ID, set.(domain.ReactionSet))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Warn().Err(err).Msg("reaction load incomplete")
		return err
	}
	return nil
}

// Loading reports whether the initial snapshot is still being fetched.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// ActivePopover returns the single open popover, if any.
func (c *Controller) ActivePopover() Popover {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.popover
}

// OpenMenu opens the options menu for a post, closing any other popover.
func (c *Controller) OpenMenu(postID string) {
	c.setPopover(Popover{Kind: PopoverMenu, PostID: postID})
}

// OpenPicker opens the reaction picker for a post, closing any other popover.
func (c *Controller) OpenPicker(postID string) {
	c.setPopover(Popover{Kind: PopoverPicker, PostID: postID})
}

// ClearPopover closes whatever popover is open, e.g. on an outside click.
func (c *Controller) ClearPopover() {
	c.setPopover(Popover{})
}

func (c *Controller) setPopover(p Popover) {
	c.mu.Lock()
	c.popover = p
	c.mu.Unlock()
	c.redisplay()
}

// BeginEdit puts an owned post into edit mode with its current body as the
// draft buffer. The options menu closes, keeping the exclusivity invariant.
func (c *Controller) BeginEdit(postID string) error {
	p, ok := c.session.Posts().Get(postID)
	if !ok {
		return ErrNoSuchPost
	}
	if !p.OwnedBy(c.session.CurrentUser().ID) {
		return ErrNotOwner
	}

	c.mu.Lock()
	c.editingID = postID
	c.draft = p.Body
	c.popover = Popover{}
	c.mu.Unlock()
	c.redisplay()
	return nil
}

// EditingPost returns the id of the post in edit mode, empty when none.
func (c *Controller) EditingPost() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editingID
}

// Draft returns the current edit buffer.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft updates the edit buffer.
func (c *Controller) SetDraft(body string) {
	c.mu.Lock()
	c.draft = body
	c.mu.Unlock()
}

// SaveEdit sends the update intent for the draft. The post stays in edit
// mode until the channel echoes post_updated; a validation error keeps the
// buffer so the user can fix it.
func (c *Controller) SaveEdit() error {
	c.mu.Lock()
	postID, draft := c.editingID, c.draft
	c.mu.Unlock()
	if postID == "" {
		return nil
	}
	return c.session.SubmitUpdate(postID, draft, nil)
}

// CancelEdit discards the draft buffer without sending any intent.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.editingID = ""
	c.draft = ""
	c.mu.Unlock()
	c.redisplay()
}

// ConfirmDelete is called after the out-of-band confirmation step; it sends
// the delete intent. The post leaves the collection on the echoed event.
func (c *Controller) ConfirmDelete(postID string) error {
	p, ok := c.session.Posts().Get(postID)
	if !ok {
		return ErrNoSuchPost
	}
	if !p.OwnedBy(c.session.CurrentUser().ID) {
		return ErrNotOwner
	}
	c.ClearPopover()
	c.session.SubmitDelete(postID)
	return nil
}

// ShowImage opens the full-screen image viewer.
func (c *Controller) ShowImage(url string) {
	c.mu.Lock()
	c.imageURL = url
	c.mu.Unlock()
	c.redisplay()
}

// CloseImage dismisses the image viewer.
func (c *Controller) CloseImage() {
	c.mu.Lock()
	c.imageURL = ""
	c.mu.Unlock()
	c.redisplay()
}

// ImageURL returns the image shown full-screen, empty when none.
func (c *Controller) ImageURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageURL
}

// StartClock triggers Redisplay on a fixed cadence so relative time labels
// stay fresh. It touches no post or reaction state. Stopped by Close.
func (c *Controller) StartClock(interval time.Duration) {
	c.mu.Lock()
	if c.closed || c.clockStop != nil {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	c.clockStop = stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.redisplay()
			case <-stop:
				return
			}
		}
	}()
}

// Close tears the view down: clock stopped, session deactivated, late fetch
// results ignored from here on. Idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.clockStop != nil {
		close(c.clockStop)
		c.clockStop = nil
	}
	c.mu.Unlock()

	c.session.Deactivate()
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// onEvent reacts to applied channel events: an echoed update for the post in
// edit mode clears the buffer, a delete drops any transient state pointing
// at the vanished post.
func (c *Controller) onEvent(event, postID string) {
	c.mu.Lock()
	switch event {
	case domain.MsgTypePostUpdated:
		if c.editingID == postID {
			c.editingID = ""
			c.draft = ""
		}
	case domain.MsgTypePostDeleted:
		if c.editingID == postID {
			c.editingID = ""
			c.draft = ""
		}
		if c.popover.PostID == postID {
			c.popover = Popover{}
		}
	}
	c.mu.Unlock()
	c.redisplay()
}

func (c *Controller) redisplay() {
	if c.Redisplay != nil {
		c.Redisplay()
	}
}
