package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/chat"
)

// openPreview shows the attachment modal for the n-th attachment (1-based,
// in message order) of the active conversation.
func (a *App) openPreview(n int) {
	a.mu.Lock()
	var att chat.Attachment
	found := n >= 1 && n <= len(a.attachmentIndex)
	if found {
		att = a.attachmentIndex[n-1]
	}
	a.mu.Unlock()
	if !found {
		return
	}

	view := tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	view.SetBorder(true).SetTitle(" " + att.DisplayName() + " ")

	var b []string
	if att.Kind == chat.AttachmentImage {
		b = append(b,
			"[yellow]Image attachment[-]",
			"",
			"Inline preview is not available here — press d to download and open locally.")
	} else {
		b = append(b, "[yellow]File attachment[-]", "")
	}
	if att.Size > 0 {
		b = append(b, "Size: "+humanize.Bytes(uint64(att.Size)))
	}
	if att.URL != "" {
		b = append(b, "URL: "+tview.Escape(att.URL))
	}
	if att.LocalPath != "" {
		b = append(b, "Local copy: "+tview.Escape(att.LocalPath)+" (not yet uploaded URL)")
	}
	b = append(b, "", "[::d]d download · Esc close[::-]")

	text := ""
	for _, line := range b {
		text += line + "\n"
	}
	view.SetText(text)

	view.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Rune() == 'q':
			a.pages.RemovePage(pagePreview)
			return nil
		case ev.Rune() == 'd':
			a.download(att)
			return nil
		}
		return ev
	})

	a.pages.AddPage(pagePreview, modal(view, 60, 12), true, true)
	a.app.SetFocus(view)
}

// download saves the attachment under its original filename in the
// configured download directory.
func (a *App) download(att chat.Attachment) {
	go func() {
		dest := filepath.Join(a.downloadDir, att.DisplayName())
		err := a.saveAttachment(att, dest)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.showError(fmt.Errorf("download %s: %w", att.DisplayName(), err))
				return
			}
			a.showNotice("Saved " + dest)
		})
	}()
}

func (a *App) saveAttachment(att chat.Attachment, dest string) error {
	var src io.ReadCloser
	if att.LocalPath != "" {
		f, err := os.Open(att.LocalPath)
		if err != nil {
			return err
		}
		src = f
	} else {
		rc, err := a.client.Download(a.ctx, att.URL)
		if err != nil {
			return err
		}
		src = rc
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

func sizeLabel(att chat.Attachment) string {
	if att.Size <= 0 {
		return ""
	}
	return " (" + humanize.Bytes(uint64(att.Size)) + ")"
}
