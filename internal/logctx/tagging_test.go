package logctx

import (
	"context"
	"slices"
	"testing"
)

func TestCtxTags(t *testing.T) {
	ctx := context.Background()
	if len(GetTagList(ctx)) != 0 {
		t.Fatalf("expected empty tag list")
	}

	parent := AppendCtxTag(ctx, "Air")
	child := AppendCtxTag(parent, "Recv")
	if !slices.Equal(GetTagList(child), []string{"Air", "Recv"}) {
		t.Fatalf("expected [Air Recv], got %v", GetTagList(child))
	}
	if !slices.Equal(GetTagList(parent), []string{"Air"}) {
		t.Fatalf("parent tags modified: %v", GetTagList(parent))
	}

	back := RemoveLastCtxTag(child)
	if !slices.Equal(GetTagList(back), []string{"Air"}) {
		t.Fatalf("expected [Air], got %v", GetTagList(back))
	}

	over := OverwriteCtxTag(child, []string{"Ground"})
	if !slices.Equal(GetTagList(over), []string{"Ground"}) {
		t.Fatalf("expected [Ground], got %v", GetTagList(over))
	}
}
