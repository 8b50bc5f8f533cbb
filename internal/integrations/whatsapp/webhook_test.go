package whatsapp

import "testing"

func TestParseWebhookText(t *testing.T) {
	raw := []byte(`{
		"entry": [{"changes": [{"value": {"messages": [
			{"from": "972501234567", "type": "text", "text": {"body": "hello"}}
		]}}]}]
	}`)

	got, err := ParseWebhook(raw)
	if err != nil {
		t.Fatalf("ParseWebhook failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("messages = %d, want 1", len(got))
	}
	if got[0].Phone != "972501234567" || got[0].Kind != InboundText || got[0].Text != "hello" {
		t.Errorf("unexpected inbound: %+v", got[0])
	}
}

func TestParseWebhookButtonReply(t *testing.T) {
	raw := []byte(`{
		"entry": [{"changes": [{"value": {"messages": [
			{"from": "972501234567", "type": "interactive",
			 "interactive": {"button_reply": {"id": "approve", "title": "Approve"}}}
		]}}]}]
	}`)

	got, err := ParseWebhook(raw)
	if err != nil {
		t.Fatalf("ParseWebhook failed: %v", err)
	}
	if len(got) != 1 || got[0].Kind != InboundButton || got[0].Text != "approve" {
		t.Fatalf("unexpected inbound: %+v", got)
	}
}

func TestParseWebhookDocument(t *testing.T) {
	raw := []byte(`{
		"entry": [{"changes": [{"value": {"messages": [
			{"from": "972501234567", "type": "document",
			 "document": {"id": "media-1", "filename": "statement.pdf", "mime_type": "application/pdf"}}
		]}}]}]
	}`)

	got, err := ParseWebhook(raw)
	if err != nil {
		t.Fatalf("ParseWebhook failed: %v", err)
	}
	if len(got) != 1 || got[0].Kind != InboundDocument {
		t.Fatalf("unexpected inbound: %+v", got)
	}
	if got[0].MediaID != "media-1" || got[0].Filename != "statement.pdf" {
		t.Errorf("media fields lost: %+v", got[0])
	}
}

func TestParseWebhookSkipsUnknownTypes(t *testing.T) {
	raw := []byte(`{
		"entry": [{"changes": [{"value": {"messages": [
			{"from": "972501234567", "type": "sticker"},
			{"from": "972501234567", "type": "text", "text": {"body": "still here"}}
		]}}]}]
	}`)

	got, err := ParseWebhook(raw)
	if err != nil {
		t.Fatalf("ParseWebhook failed: %v", err)
	}
	if len(got) != 1 || got[0].Text != "still here" {
		t.Fatalf("unexpected inbound: %+v", got)
	}
}

func TestParseWebhookInvalidJSON(t *testing.T) {
	if _, err := ParseWebhook([]byte(`{not json`)); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}

func TestParseWebhookNoMessages(t *testing.T) {
	got, err := ParseWebhook([]byte(`{"entry": []}`))
	if err != nil {
		t.Fatalf("ParseWebhook failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("messages = %d, want 0", len(got))
	}
}
