package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/hyperjump/carelens/pkg/utils"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()
	a, err := e.Embed(ctx, "HIV testing and PrEP")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(ctx, "hiv testing and prep")
	if len(a) != 64 {
		t.Fatalf("len=%d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding differs at %d", i)
		}
	}
	var norm float64
	for _, v := range a {
		norm += float64(v * v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("norm^2=%v, want 1", norm)
	}
}

func TestHashEmbedder_SharedVocabularyIsCloser(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "depression counseling referral")
	near, _ := e.Embed(ctx, "refer patients with depression for counseling")
	far, _ := e.Embed(ctx, "antiretroviral viral load monitoring schedule")
	if utils.SquaredL2(q, near) >= utils.SquaredL2(q, far) {
		t.Errorf("expected shared-vocabulary text to be closer: near=%v far=%v",
			utils.SquaredL2(q, near), utils.SquaredL2(q, far))
	}
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	e := NewHashEmbedder(0)
	if e.Dimensions() != 384 {
		t.Errorf("default dimensions=%d", e.Dimensions())
	}
	v, err := e.Embed(context.Background(), "   ")
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range v {
		if x != 0 {
			t.Fatal("empty text should embed to zero vector")
		}
	}
}

func TestHashEmbedder_EmbedBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHashEmbedder(8).EmbedBatch(ctx, []string{"a"}); err == nil {
		t.Error("expected context error")
	}
}
