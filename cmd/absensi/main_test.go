package main

import (
	"strings"
	"testing"
)

func TestRootHasCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate", "seed", "sweep"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("missing %s command: %v", name, err)
		}
	}
}

func TestMigrateNeedsDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
}
