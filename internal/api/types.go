package api

import (
	"encoding/json"
	"time"
)

// Wire types for the platform chat API. Field names follow the backend's
// Mongo-flavored JSON (_id, camelCase).

type User struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Preview is the lastMessage snippet. Older endpoint versions return a bare
// string, newer ones an object with a text field; accept both.
type Preview string

func (p *Preview) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = Preview(s)
		return nil
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		*p = Preview(obj.Text)
		return nil
	}
	*p = ""
	return nil
}

type GroupChat struct {
	ID            string  `json:"_id"`
	GroupName     string  `json:"groupName"`
	LastMessage   Preview `json:"lastMessage"`
	EnrolledUsers []User  `json:"enrolledUsers"`
	Mentors       []User  `json:"mentors"`
}

type IndividualChat struct {
	ID          string  `json:"_id"`
	OtherUser   User    `json:"otherUser"`
	LastMessage Preview `json:"lastMessage"`
}

type Media struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	Type     string `json:"type"`
}

type Message struct {
	Sender    User      `json:"sender"`
	Text      string    `json:"text"`
	Media     []Media   `json:"media"`
	CreatedAt time.Time `json:"createdAt"`
}

// GroupDetails is the roster piggybacked on the group messages endpoint.
type GroupDetails struct {
	EnrolledUsers []User `json:"enrolledUsers"`
	Mentors       []User `json:"mentors"`
}

// normalizeMessages accepts the container shapes the backend is known to use
// across endpoint versions: a bare array, a messages array, or a data array.
// Anything else normalizes to an empty list. The backend is outside our
// control, so keep all three fallbacks.
func normalizeMessages(body []byte) []Message {
	var bare []Message
	if err := json.Unmarshal(body, &bare); err == nil && bare != nil {
		return bare
	}

	var wrapped struct {
		Messages []Message `json:"messages"`
		Data     []Message `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if wrapped.Messages != nil {
			return wrapped.Messages
		}
		if wrapped.Data != nil {
			return wrapped.Data
		}
	}
	return []Message{}
}
