package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/api"
	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/session"
)

// Selecting a group issues the group-scoped fetch and renders the remote
// sender's message as not-self.
func TestSelectGroupEndToEnd(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"success":true,"messages":[{"sender":{"_id":"S1","name":"Alice"},"text":"hi","createdAt":"2025-01-01T10:00:00Z","media":[]}]}`))
	}))
	defer srv.Close()

	service := NewService(api.NewClient(srv.URL), session.Actor{ID: "M1", Name: "Mentor"})
	cache := NewCache()
	s := NewSynchronizer(service, cache, 2*time.Second, clockwork.NewFakeClock())
	defer s.Close()

	s.Select(context.Background(), Conversation{ID: "G1", Kind: KindGroup, DisplayName: "Batch A"})

	waitFor(t, "group snapshot", func() bool {
		msgs, ok := cache.Get("G1")
		return ok && len(msgs) == 1
	})

	assert.Equal(t, "/api/group-messages/G1/M1", gotPath)
	msgs, _ := cache.Get("G1")
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, "Alice", msgs[0].Sender)
	assert.False(t, msgs[0].IsSelf)
	assert.Empty(t, msgs[0].Attachments)
}

// Sending to a group posts the multipart field set and grows the local list
// immediately, before any poll tick.
func TestSendGroupEndToEnd(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/group-messages", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		form = r.MultipartForm.Value
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	actor := session.Actor{ID: "M1", Name: "Mentor"}
	service := NewService(api.NewClient(srv.URL), actor)
	cache := NewCache()
	composer := NewComposer(service, cache, actor)
	conv := Conversation{ID: "G1", Kind: KindGroup, DisplayName: "Batch A"}

	assert.NoError(t, composer.Send(context.Background(), &conv, "hello", nil))

	assert.Equal(t, []string{"G1"}, form["chatGroupId"])
	assert.Equal(t, []string{"M1"}, form["senderId"])
	assert.Equal(t, []string{"hello"}, form["text"])

	msgs, ok := cache.Get("G1")
	assert.True(t, ok)
	assert.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsSelf)
	assert.Equal(t, "hello", msgs[0].Text)
}

func TestFetchIndividualUsesCounterpartEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"success":true,"messages":[{"sender":{"_id":"M1","name":"ignored"},"text":"sent by me","createdAt":"2025-01-01T10:00:00Z"}]}`))
	}))
	defer srv.Close()

	actor := session.Actor{ID: "M1", Name: "Mentor"}
	service := NewService(api.NewClient(srv.URL), actor)

	msgs, roster, err := service.FetchMessages(context.Background(), Conversation{
		ID:          "C1",
		Kind:        KindIndividual,
		Counterpart: &Participant{ID: "S1", Name: "Alice"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "/api/individual-messages/S1/M1", gotPath)
	assert.Nil(t, roster)
	if assert.Len(t, msgs, 1) {
		// IsSelf is recomputed from the server's sender id.
		assert.True(t, msgs[0].IsSelf)
		assert.Equal(t, "Mentor", msgs[0].Sender)
	}
}

func TestFetchIndividualWithoutCounterpartFails(t *testing.T) {
	service := NewService(api.NewClient("http://localhost:0"), session.Actor{ID: "M1"})

	_, _, err := service.FetchMessages(context.Background(), Conversation{ID: "C1", Kind: KindIndividual})

	assert.Error(t, err)
}

func TestGroupRosterMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"messages": [],
			"groupDetails": {
				"enrolledUsers": [{"_id":"S1","name":"Alice"},{"_id":"S2","name":"Bob"}],
				"mentors": [{"_id":"M1","name":"Me"}]
			}
		}`))
	}))
	defer srv.Close()

	service := NewService(api.NewClient(srv.URL), session.Actor{ID: "M1", Name: "Me"})

	_, roster, err := service.FetchMessages(context.Background(), groupConv("G1"))

	assert.NoError(t, err)
	assert.Len(t, roster, 3)
	assert.Equal(t, RoleStudent, roster[0].Role)
	assert.Equal(t, RoleStudent, roster[1].Role)
	assert.Equal(t, RoleMentor, roster[2].Role)
}

func TestListGroupsMapsConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[{"_id":"G1","groupName":"Batch A","lastMessage":{"text":"bye"}}]}`))
	}))
	defer srv.Close()

	service := NewService(api.NewClient(srv.URL), session.Actor{ID: "M1"})

	groups, err := service.ListGroups(context.Background())

	assert.NoError(t, err)
	if assert.Len(t, groups, 1) {
		assert.Equal(t, KindGroup, groups[0].Kind)
		assert.Equal(t, "Batch A", groups[0].DisplayName)
		assert.Equal(t, "bye", groups[0].LastMessagePreview)
		assert.Nil(t, groups[0].Counterpart)
	}
}

func TestListIndividualsMapsCounterpart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[{"_id":"C1","otherUser":{"_id":"S1","name":"Alice"}}]}`))
	}))
	defer srv.Close()

	service := NewService(api.NewClient(srv.URL), session.Actor{ID: "M1"})

	individuals, err := service.ListIndividuals(context.Background())

	assert.NoError(t, err)
	if assert.Len(t, individuals, 1) {
		assert.Equal(t, KindIndividual, individuals[0].Kind)
		assert.Equal(t, "Alice", individuals[0].DisplayName)
		if assert.NotNil(t, individuals[0].Counterpart) {
			assert.Equal(t, "S1", individuals[0].Counterpart.ID)
		}
	}
}

func TestCreateIndividualChatSynthesizesConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"_id":"C9"}}`))
	}))
	defer srv.Close()

	service := NewService(api.NewClient(srv.URL), session.Actor{ID: "M1"})

	conv, err := service.CreateIndividualChat(context.Background(), Member{ID: "S1", Name: "Alice", Role: RoleStudent})

	assert.NoError(t, err)
	assert.Equal(t, "C9", conv.ID)
	assert.Equal(t, KindIndividual, conv.Kind)
	assert.Equal(t, "Alice", conv.DisplayName)
	if assert.NotNil(t, conv.Counterpart) {
		assert.Equal(t, "S1", conv.Counterpart.ID)
	}
}
