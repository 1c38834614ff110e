package pubsub

import (
	"context"
	"testing"

	"github.com/milosbg/mbg-admin-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "mbg-prod"}

	if got := c.topicResourceName("mbg-order-events"); got != "projects/mbg-prod/topics/mbg-order-events" {
		t.Fatalf("unexpected resource name %q", got)
	}
	full := "projects/other/topics/orders"
	if got := c.topicResourceName(full); got != full {
		t.Fatalf("full resource name should pass through, got %q", got)
	}
	if got := c.topicResourceName("  "); got != "" {
		t.Fatalf("blank name should resolve to empty, got %q", got)
	}
	if got := (&Client{}).topicResourceName("orders"); got != "" {
		t.Fatalf("missing project should resolve to empty, got %q", got)
	}
}

func TestTopicNamesSkipsBlank(t *testing.T) {
	if names := topicNames(config.PubSubConfig{OrdersTopic: " "}); len(names) != 0 {
		t.Fatalf("expected no topics, got %v", names)
	}
	if names := topicNames(config.PubSubConfig{OrdersTopic: "orders"}); len(names) != 1 {
		t.Fatalf("expected one topic, got %v", names)
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Publisher("orders") != nil {
		t.Fatalf("nil client should not return a publisher")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("ping on nil client should fail")
	}
}
