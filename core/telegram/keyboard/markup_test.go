package keyboard

import "testing"

func TestReply(t *testing.T) {
	m := Reply([][]string{{"a", "b"}, nil, {"c"}})
	if !m.ResizeKeyboard {
		t.Fatal("reply keyboard should resize")
	}
	if len(m.ReplyKeyboard) != 2 || len(m.ReplyKeyboard[0]) != 2 {
		t.Fatalf("layout = %+v", m.ReplyKeyboard)
	}
	if m.ReplyKeyboard[1][0].Text != "c" {
		t.Fatalf("label = %q", m.ReplyKeyboard[1][0].Text)
	}
}

func TestInlineKeepsRawData(t *testing.T) {
	m := Inline([][]Button{
		{{Text: "Done", Data: "toggle_status:3"}},
		{{Text: "Title", Data: "edit_task_title:3"}, {Text: "Descr", Data: "edit_task_description:3"}},
	})
	if len(m.InlineKeyboard) != 2 || len(m.InlineKeyboard[1]) != 2 {
		t.Fatalf("layout = %+v", m.InlineKeyboard)
	}
	btn := m.InlineKeyboard[0][0]
	if btn.Unique != "" || btn.Data != "toggle_status:3" || btn.Text != "Done" {
		t.Fatalf("button = %+v", btn)
	}
}

func TestRemove(t *testing.T) {
	if !Remove().RemoveKeyboard {
		t.Fatal("expected remove flag")
	}
}
