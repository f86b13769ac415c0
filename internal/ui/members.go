package ui

import (
	"strings"

	"github.com/rivo/tview"

	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/chat"
)

// openMembers loads the active group's roster and shows the membership
// modal. Only meaningful for group conversations.
func (a *App) openMembers() {
	active, ok := a.synchronizer.Active()
	if !ok || active.Kind != chat.KindGroup {
		return
	}

	go func() {
		roster := a.membership.LoadMembers(a.ctx, active)
		a.app.QueueUpdateDraw(func() {
			a.showMembers(active, roster)
		})
	}()
}

func (a *App) showMembers(conv chat.Conversation, roster []chat.Member) {
	list := tview.NewList().ShowSecondaryText(true)
	list.SetBorder(true).SetTitle(" " + conv.DisplayName + " — members ")

	// Students are selectable escalation targets; mentors are shown for
	// context only.
	for _, m := range chat.Addressable(roster) {
		m := m
		list.AddItem(m.Name, "Student · Enter to start 1:1 chat", 0, func() {
			a.escalate(m)
		})
	}
	for _, m := range roster {
		if strings.EqualFold(m.Role, chat.RoleStudent) {
			continue
		}
		list.AddItem("[::d]"+tview.Escape(m.Name)+"[::-]", "Mentor", 0, nil)
	}
	if len(roster) == 0 {
		list.AddItem("[::d]No members available[::-]", "", 0, nil)
	}

	list.SetDoneFunc(func() {
		a.pages.RemovePage(pageMembers)
	})

	a.pages.AddPage(pageMembers, modal(list, 50, 16), true, true)
	a.app.SetFocus(list)
}

// escalate starts (or reuses) a 1:1 chat with a student from the roster.
// The modal closes only on success; a creation failure keeps it open with
// the error in the banner.
func (a *App) escalate(m chat.Member) {
	go func() {
		conv, err := a.membership.StartIndividualChat(a.ctx, m)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.showError(err)
				return
			}
			a.pages.RemovePage(pageMembers)
			a.refreshSidebar()
			a.mu.Lock()
			draft := a.drafts[conv.ID]
			a.mu.Unlock()
			a.input.SetText(draft, true)
			a.renderMessages(conv.ID)
			a.app.SetFocus(a.input)
		})
	}()
}
