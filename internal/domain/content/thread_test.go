package content

import (
	"testing"
	"time"
)

func msg(by Party, text string, minute int) Message {
	return Message{By: by, Text: text, At: testNow.Add(time.Duration(minute) * time.Minute)}
}

func TestInlineThreadKeepsTwoPerParty(t *testing.T) {
	thread := []Message{
		msg(PartyEditor, "e1", 1),
		msg(PartyAdmin, "a1", 2),
		msg(PartyEditor, "e2", 3),
		msg(PartyEditor, "e3", 4),
		msg(PartyAdmin, "a2", 5),
		msg(PartyAdmin, "a3", 6),
		msg(PartyEditor, "e4", 7),
	}
	view := InlineThread(thread, InlinePerParty)
	var got []string
	for _, m := range view.Messages {
		got = append(got, m.Text)
	}
	want := []string{"e3", "a2", "a3", "e4"}
	if len(got) != len(want) {
		t.Fatalf("inline: want=%v got=%v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("inline: want=%v got=%v", want, got)
		}
	}
	if !view.HasOlder || view.OlderCount != 3 {
		t.Fatalf("older: hasOlder=%v count=%d", view.HasOlder, view.OlderCount)
	}
}

func TestOlderMessagesPagesHiddenEntries(t *testing.T) {
	thread := []Message{}
	for i := 0; i < 7; i++ {
		thread = append(thread, msg(PartyEditor, string(rune('a'+i)), i))
	}
	// inline keeps f, g; hidden are a..e
	page0, more := OlderMessages(thread, InlinePerParty, 0, 3)
	if len(page0) != 3 || page0[0].Text != "c" || page0[2].Text != "e" || !more {
		t.Fatalf("page0: %+v more=%v", page0, more)
	}
	page1, more := OlderMessages(thread, InlinePerParty, 1, 3)
	if len(page1) != 2 || page1[0].Text != "a" || more {
		t.Fatalf("page1: %+v more=%v", page1, more)
	}
	page2, more := OlderMessages(thread, InlinePerParty, 2, 3)
	if len(page2) != 0 || more {
		t.Fatalf("page2: %+v more=%v", page2, more)
	}
}

func TestPostMessageSetsOpenMessage(t *testing.T) {
	doc := newDailyDraft(t, editor)
	out, err := PostMessage(doc, editor, "first pass done", testNow)
	if err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	out, err = PostMessage(out, admin, "looks good", testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("PostMessage admin: %v", err)
	}
	r := out.ReviewState()
	if r.EditorMessage != "first pass done" || r.Feedback != "looks good" {
		t.Fatalf("open messages: %+v", r)
	}
	if len(r.MessageThread) != 2 {
		t.Fatalf("thread len: want=2 got=%d", len(r.MessageThread))
	}
	if _, err := PostMessage(doc, other, "drive-by", testNow); err == nil {
		t.Fatalf("non-owner editor must not post")
	}
}
