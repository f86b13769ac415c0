package chat

// Kind discriminates group threads from 1:1 threads.
type Kind string

const (
	KindGroup      Kind = "group"
	KindIndividual Kind = "individual"
)

// Participant is a chat party reference (id + display name).
type Participant struct {
	ID   string
	Name string
}

// Conversation is a group or 1:1 thread container.
// Counterpart is meaningful only for individual conversations,
// Members only for groups (and only once the roster has been loaded).
type Conversation struct {
	ID                 string
	Kind               Kind
	DisplayName        string
	LastMessagePreview string
	Counterpart        *Participant
	Members            []Member
}

// Member is one group roster entry.
type Member struct {
	ID   string
	Name string
	Role string
}

const (
	RoleStudent = "Student"
	RoleMentor  = "Mentor"
)

// Message is a single chat line belonging to exactly one conversation.
// LocalID is set only on optimistic local sends, before the server has
// confirmed the message in a poll snapshot.
type Message struct {
	LocalID     string
	SenderID    string
	Sender      string
	IsSelf      bool
	Text        string
	Attachments []Attachment
	SentAt      string
}

// sentAtFormat is the display format for message timestamps.
const sentAtFormat = "Jan 2 3:04 PM"
