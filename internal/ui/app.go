package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/api"
	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/chat"
)

const (
	pageMain    = "main"
	pageMembers = "members"
	pagePreview = "preview"
)

// App is the chat screen: conversation sidebar, message pane, composer input,
// a single error-banner slot, and the members/preview modals.
type App struct {
	ctx context.Context

	app   *tview.Application
	pages *tview.Pages

	sidebar  *tview.List
	messages *tview.TextView
	input    *tview.TextArea
	banner   *tview.TextView

	client       *api.Client
	directory    *chat.Directory
	synchronizer *chat.Synchronizer
	composer     *chat.Composer
	membership   *chat.Membership
	cache        *chat.Cache
	downloadDir  string

	mu              sync.Mutex
	order           []chat.Conversation
	drafts          map[string]string
	pending         map[string][]chat.DraftAttachment
	attachmentIndex []chat.Attachment
}

func New(
	ctx context.Context,
	client *api.Client,
	directory *chat.Directory,
	synchronizer *chat.Synchronizer,
	composer *chat.Composer,
	membership *chat.Membership,
	cache *chat.Cache,
	downloadDir string,
) *App {
	return &App{
		ctx:          ctx,
		app:          tview.NewApplication(),
		client:       client,
		directory:    directory,
		synchronizer: synchronizer,
		composer:     composer,
		membership:   membership,
		cache:        cache,
		downloadDir:  downloadDir,
		drafts:       map[string]string{},
		pending:      map[string][]chat.DraftAttachment{},
	}
}

func (a *App) Run() error {
	a.build()

	a.synchronizer.OnUpdate(func(conversationID string) {
		a.app.QueueUpdateDraw(func() {
			a.renderMessages(conversationID)
		})
	})
	a.synchronizer.OnError(func(err error) {
		a.app.QueueUpdateDraw(func() {
			a.showError(err)
		})
	})

	go a.loadDirectory()

	defer a.synchronizer.Close()
	return a.app.Run()
}

func (a *App) build() {
	a.sidebar = tview.NewList().ShowSecondaryText(true)
	a.sidebar.SetBorder(true).SetTitle(" Chats ")

	a.messages = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	a.messages.SetBorder(true).SetTitle(" Messages ")

	a.banner = tview.NewTextView().SetDynamicColors(true)

	a.input = tview.NewTextArea().SetPlaceholder("Message… (/attach <path>, /file <n>)")
	a.input.SetBorder(true)
	a.input.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEnter {
			if ev.Modifiers()&tcell.ModShift != 0 {
				// Shift+Enter inserts a literal newline
				return ev
			}
			a.submit()
			return nil
		}
		return ev
	})

	hints := tview.NewTextView().SetDynamicColors(true).
		SetText("[::d]Tab focus · Enter send · Shift+Enter newline · Ctrl+G members · Ctrl+C quit[-:-:-]")

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.banner, 1, 0, false).
		AddItem(a.messages, 0, 1, false).
		AddItem(a.input, 4, 0, true).
		AddItem(hints, 1, 0, false)

	main := tview.NewFlex().
		AddItem(a.sidebar, 32, 0, false).
		AddItem(right, 0, 1, true)

	a.pages = tview.NewPages()
	a.pages.AddPage(pageMain, main, true, true)

	a.app.SetRoot(a.pages, true)
	a.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyTAB:
			if a.app.GetFocus() == a.sidebar {
				a.app.SetFocus(a.input)
			} else {
				a.app.SetFocus(a.sidebar)
			}
			return nil
		case tcell.KeyCtrlG:
			a.openMembers()
			return nil
		}
		return ev
	})
	a.app.SetFocus(a.sidebar)
}

func (a *App) loadDirectory() {
	err := a.directory.Load(a.ctx)
	a.app.QueueUpdateDraw(func() {
		if err != nil {
			a.showError(err)
		}
		a.refreshSidebar()
	})
}

func (a *App) refreshSidebar() {
	a.mu.Lock()
	a.order = a.order[:0]
	a.order = append(a.order, a.directory.Groups()...)
	a.order = append(a.order, a.directory.Individuals()...)
	order := make([]chat.Conversation, len(a.order))
	copy(order, a.order)
	a.mu.Unlock()

	a.sidebar.Clear()
	for _, conv := range order {
		conv := conv
		label := conv.DisplayName
		if conv.Kind == chat.KindGroup {
			label = "⦿ " + label
		}
		a.sidebar.AddItem(label, conv.LastMessagePreview, 0, func() {
			a.selectConversation(conv)
		})
	}
}

func (a *App) selectConversation(conv chat.Conversation) {
	a.mu.Lock()
	if active, ok := a.synchronizer.Active(); ok {
		a.drafts[active.ID] = a.input.GetText()
	}
	draft := a.drafts[conv.ID]
	a.mu.Unlock()

	a.synchronizer.Select(a.ctx, conv)
	a.input.SetText(draft, true)
	a.renderMessages(conv.ID)
	a.app.SetFocus(a.input)
}

// renderMessages redraws the message pane when conversationID is still the
// active conversation; stale redraw requests are ignored.
func (a *App) renderMessages(conversationID string) {
	active, ok := a.synchronizer.Active()
	if !ok || active.ID != conversationID {
		return
	}

	msgs, _ := a.cache.Get(conversationID)

	a.mu.Lock()
	a.attachmentIndex = a.attachmentIndex[:0]
	var b strings.Builder
	for _, m := range msgs {
		if m.IsSelf {
			fmt.Fprintf(&b, "[green::b]▶ %s[-:-:-]  [::d]%s[::-]\n", tview.Escape(m.Sender), m.SentAt)
		} else {
			fmt.Fprintf(&b, "[blue::b]%s[-:-:-]  [::d]%s[::-]\n", tview.Escape(m.Sender), m.SentAt)
		}
		if m.Text != "" {
			b.WriteString(tview.Escape(m.Text))
			b.WriteByte('\n')
		}
		for _, att := range m.Attachments {
			a.attachmentIndex = append(a.attachmentIndex, att)
			fmt.Fprintf(&b, "  [yellow][%d][-] %s%s\n",
				len(a.attachmentIndex), tview.Escape(att.DisplayName()), sizeLabel(att))
		}
		b.WriteByte('\n')
	}
	pendingCount := len(a.pending[conversationID])
	a.mu.Unlock()

	title := " " + active.DisplayName + " "
	if pendingCount > 0 {
		title = fmt.Sprintf(" %s (%d file(s) staged) ", active.DisplayName, pendingCount)
	}
	a.messages.SetTitle(title)
	a.messages.SetText(b.String())
	a.messages.ScrollToEnd()
}

func (a *App) submit() {
	text := a.input.GetText()
	trimmed := strings.TrimSpace(text)

	// Composer slash commands
	switch {
	case strings.HasPrefix(trimmed, "/attach "):
		a.stageAttachment(strings.TrimSpace(strings.TrimPrefix(trimmed, "/attach")))
		return
	case strings.HasPrefix(trimmed, "/file "):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(trimmed, "/file")))
		if err == nil {
			a.input.SetText("", true)
			a.openPreview(n)
		}
		return
	case trimmed == "/members":
		a.input.SetText("", true)
		a.openMembers()
		return
	}

	active, ok := a.synchronizer.Active()
	if !ok {
		return
	}

	a.mu.Lock()
	pending := a.pending[active.ID]
	a.mu.Unlock()

	if trimmed == "" && len(pending) == 0 {
		return
	}

	go func() {
		err := a.composer.Send(a.ctx, &active, text, pending)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				// Draft and staged files stay put for a retry.
				a.showError(err)
				return
			}
			a.mu.Lock()
			delete(a.pending, active.ID)
			delete(a.drafts, active.ID)
			a.mu.Unlock()
			a.input.SetText("", true)
			a.clearBanner()
			a.renderMessages(active.ID)
		})
	}()
}

func (a *App) stageAttachment(path string) {
	active, ok := a.synchronizer.Active()
	if !ok || path == "" {
		return
	}
	a.mu.Lock()
	a.pending[active.ID] = append(a.pending[active.ID], chat.DraftAttachment{Path: path})
	a.mu.Unlock()
	a.input.SetText("", true)
	a.renderMessages(active.ID)
}

// showError fills the single shared banner slot; the most recent error wins.
func (a *App) showError(err error) {
	a.banner.SetText("[red::b]" + tview.Escape(err.Error()) + "[-:-:-]")
}

func (a *App) showNotice(msg string) {
	a.banner.SetText("[green]" + tview.Escape(msg) + "[-]")
}

func (a *App) clearBanner() {
	a.banner.SetText("")
}

// modal centers a primitive over the current page.
func modal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}
