package content

import (
	"sort"
	"strings"
	"time"

	"github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
)

type Party string

const (
	PartyEditor Party = "editor"
	PartyAdmin  Party = "admin"
)

// InlinePerParty is how many recent messages per party are shown without paging.
const InlinePerParty = 2

type Message struct {
	By   Party     `json:"by"`
	UID  string    `json:"uid,omitempty"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

func partyOf(r identity.Role) Party {
	if r.Privileged() {
		return PartyAdmin
	}
	return PartyEditor
}

func appendMessage(thread []Message, m Message) []Message {
	out := make([]Message, 0, len(thread)+1)
	out = append(out, thread...)
	return append(out, m)
}

// PostMessage sets the actor's open message and records it in the thread.
func PostMessage(doc Document, actor identity.Actor, text string, now time.Time) (Document, error) {
	const op = "content.PostMessage"
	text = strings.TrimSpace(text)
	if text == "" {
		return doc, apierr.Validation(apierr.CodeInvalidInput, op, "message text is required")
	}
	if err := checkEditorAccess(doc, actor, op); err != nil {
		return doc, err
	}
	now = now.UTC()
	party := partyOf(actor.Role)
	r := doc.ReviewState()
	if party == PartyAdmin {
		r.Feedback = text
	} else {
		r.EditorMessage = text
	}
	r.MessageThread = appendMessage(r.MessageThread, Message{By: party, UID: actor.UID, Text: text, At: now})
	doc.setReview(r)
	doc.UpdatedBy = stamp(actor, now)
	doc.UpdatedAt = now
	return doc, nil
}

// ThreadView is the inline slice of a thread.
type ThreadView struct {
	Messages   []Message `json:"messages"`
	HasOlder   bool      `json:"hasOlder"`
	OlderCount int       `json:"olderCount"`
}

// InlineThread keeps the newest perParty entries from each party, oldest first.
func InlineThread(thread []Message, perParty int) ThreadView {
	sorted, keep := partition(thread, perParty)
	out := []Message{}
	for i, m := range sorted {
		if keep[i] {
			out = append(out, m)
		}
	}
	older := len(sorted) - len(out)
	return ThreadView{Messages: out, HasOlder: older > 0, OlderCount: older}
}

// OlderMessages pages through the entries InlineThread leaves out, newest page
// first. Each page is returned oldest first.
func OlderMessages(thread []Message, perParty, page, pageSize int) (msgs []Message, hasMore bool) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page < 0 {
		page = 0
	}
	sorted, keep := partition(thread, perParty)
	hidden := []Message{}
	for i, m := range sorted {
		if !keep[i] {
			hidden = append(hidden, m)
		}
	}
	end := len(hidden) - page*pageSize
	if end <= 0 {
		return []Message{}, false
	}
	start := end - pageSize
	if start < 0 {
		start = 0
	}
	return append([]Message(nil), hidden[start:end]...), start > 0
}

func partition(thread []Message, perParty int) ([]Message, []bool) {
	if perParty <= 0 {
		perParty = InlinePerParty
	}
	sorted := append([]Message(nil), thread...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })
	seen := map[Party]int{}
	keep := make([]bool, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		if p := sorted[i].By; seen[p] < perParty {
			seen[p]++
			keep[i] = true
		}
	}
	return sorted, keep
}
