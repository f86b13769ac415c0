package chat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/api"
	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/session"
)

type sender interface {
	SendMessage(ctx context.Context, conv Conversation, text string, files []api.Upload) error
}

// DraftAttachment is a file staged for the next send.
type DraftAttachment struct {
	Path string
	Name string
}

func (d DraftAttachment) displayName() string {
	if d.Name != "" {
		return d.Name
	}
	return filepath.Base(d.Path)
}

// Composer submits drafts and appends the optimistic local message on
// success. The caller owns the draft widgets; on error nothing is appended
// so the draft can be retried as-is.
type Composer struct {
	sender sender
	cache  *Cache
	actor  session.Actor
	now    func() time.Time
}

func NewComposer(sender sender, cache *Cache, actor session.Actor) *Composer {
	return &Composer{
		sender: sender,
		cache:  cache,
		actor:  actor,
		now:    time.Now,
	}
}

// Send is a no-op when there is nothing to send or nothing selected.
func (c *Composer) Send(ctx context.Context, conv *Conversation, text string, attachments []DraftAttachment) error {
	if conv == nil {
		return nil
	}
	if strings.TrimSpace(text) == "" && len(attachments) == 0 {
		return nil
	}

	uploads := make([]api.Upload, 0, len(attachments))
	var open []*os.File
	defer func() {
		for _, f := range open {
			f.Close()
		}
	}()
	for _, a := range attachments {
		f, err := os.Open(a.Path)
		if err != nil {
			return fmt.Errorf("attachment %s: %w", a.displayName(), err)
		}
		open = append(open, f)
		uploads = append(uploads, api.Upload{Name: a.displayName(), Content: f})
	}

	if err := c.sender.SendMessage(ctx, *conv, text, uploads); err != nil {
		return err
	}

	c.cache.Append(conv.ID, c.optimistic(text, attachments))
	return nil
}

// optimistic builds the locally inserted message shown before the next poll
// tick confirms it. Attachments point at the local files; the server URL is
// unknown until the snapshot catches up.
func (c *Composer) optimistic(text string, attachments []DraftAttachment) Message {
	atts := make([]Attachment, 0, len(attachments))
	for _, a := range attachments {
		att := Attachment{
			FileName:  a.displayName(),
			Kind:      DetectKind("", a.displayName()),
			LocalPath: a.Path,
		}
		if info, err := os.Stat(a.Path); err == nil {
			att.Size = info.Size()
		}
		atts = append(atts, att)
	}

	return Message{
		LocalID:     uuid.New().String(),
		SenderID:    c.actor.ID,
		Sender:      c.actor.Name,
		IsSelf:      true,
		Text:        text,
		Attachments: atts,
		SentAt:      c.now().Format(sentAtFormat),
	}
}
