package callbacks

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestJoinAndParseTarget(t *testing.T) {
	data := Join("toggle_status", 42)
	if data != "toggle_status:42" {
		t.Fatalf("data = %q", data)
	}
	action, id, err := ParseTarget(data)
	if err != nil || action != "toggle_status" || id != 42 {
		t.Fatalf("parse = %q, %d, %v", action, id, err)
	}
}

func TestParseTargetMalformed(t *testing.T) {
	for _, data := range []string{"", "toggle_status", ":5", "delete_task:abc"} {
		if _, _, err := ParseTarget(data); !errors.Is(err, ErrMalformed) {
			t.Errorf("ParseTarget(%q) err = %v, want ErrMalformed", data, err)
		}
	}
}

func TestParseCallbackData(t *testing.T) {
	key, payload := ParseCallbackData(&tele.Callback{Data: "delete_task:7"})
	if key != "delete_task" || payload != "7" {
		t.Fatalf("raw = %q, %q", key, payload)
	}
	key, payload = ParseCallbackData(&tele.Callback{Unique: "menu", Data: "x"})
	if key != "menu" || payload != "x" {
		t.Fatalf("unique = %q, %q", key, payload)
	}
	if key, _ := ParseCallbackData(nil); key != "" {
		t.Fatalf("nil key = %q", key)
	}
}
