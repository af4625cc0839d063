package widgets_test

import (
	"testing"

	"github.com/deevus/instructor-tui/widgets"
)

func TestTabBar_Labels(t *testing.T) {
	tb := widgets.NewTabBar([]string{"Remote Gradebook", "Grade Export", "Canvas"})
	if tb.Active() != 0 {
		t.Errorf("expected initial active=0, got %d", tb.Active())
	}
}

func TestTabBar_Next(t *testing.T) {
	tb := widgets.NewTabBar([]string{"A", "B", "C"})
	tb.Next()
	if tb.Active() != 1 {
		t.Errorf("expected active=1, got %d", tb.Active())
	}
	tb.Next()
	if tb.Active() != 2 {
		t.Errorf("expected active=2, got %d", tb.Active())
	}
	// Wraps around
	tb.Next()
	if tb.Active() != 0 {
		t.Errorf("expected active=0 after wrap, got %d", tb.Active())
	}
}

func TestTabBar_Prev(t *testing.T) {
	tb := widgets.NewTabBar([]string{"A", "B", "C"})
	// Wraps backward
	tb.Prev()
	if tb.Active() != 2 {
		t.Errorf("expected active=2 after backward wrap, got %d", tb.Active())
	}
	tb.Prev()
	if tb.Active() != 1 {
		t.Errorf("expected active=1, got %d", tb.Active())
	}
}

func TestTabBar_SetActive(t *testing.T) {
	tb := widgets.NewTabBar([]string{"A", "B", "C"})
	tb.SetActive(2)
	if tb.Active() != 2 {
		t.Errorf("expected active=2, got %d", tb.Active())
	}
	// Out of bounds is ignored
	tb.SetActive(5)
	if tb.Active() != 2 {
		t.Errorf("expected active=2 (ignored), got %d", tb.Active())
	}
	tb.SetActive(-1)
	if tb.Active() != 2 {
		t.Errorf("expected active=2 (ignored negative), got %d", tb.Active())
	}
}

func TestTabBar_Draw(t *testing.T) {
	tb := widgets.NewTabBar([]string{"Remote Gradebook", "Grade Export", "Canvas"})
	ctx := testDrawContext(80, 1)

	s, err := tb.Draw(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Size.Height != 1 {
		t.Errorf("expected surface height=1, got %d", s.Size.Height)
	}
	if s.Size.Width != 80 {
		t.Errorf("expected surface width=80, got %d", s.Size.Width)
	}
}

func TestTabBar_Draw_ActiveTabChanges(t *testing.T) {
	tb := widgets.NewTabBar([]string{"A", "B", "C"})
	ctx := testDrawContext(40, 1)

	// Draw with tab 0 active
	s1, err := tb.Draw(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s1.Size.Height != 1 {
		t.Errorf("expected height=1, got %d", s1.Size.Height)
	}

	// Draw with tab 1 active
	tb.SetActive(1)
	s2, err := tb.Draw(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s2.Size.Height != 1 {
		t.Errorf("expected height=1, got %d", s2.Size.Height)
	}

	// Draw with tab 2 active
	tb.SetActive(2)
	s3, err := tb.Draw(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s3.Size.Height != 1 {
		t.Errorf("expected height=1, got %d", s3.Size.Height)
	}
}

func TestTabBar_Draw_NumbersAndBadges(t *testing.T) {
	tb := widgets.NewTabBar([]string{"A", "B"})
	tb.SetBadge(1, "*")

	s, err := tb.Draw(testDrawContext(20, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := " 1 A  |  2 B*       "
	if got := rowText(s.Buffer, 20, 0); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if tb.Badge(1) != "*" {
		t.Errorf("expected badge *, got %q", tb.Badge(1))
	}

	tb.SetBadge(1, "")
	if tb.Badge(1) != "" {
		t.Errorf("expected cleared badge, got %q", tb.Badge(1))
	}
	tb.SetBadge(7, "x")
	if tb.Badge(7) != "" {
		t.Error("expected out-of-range badge to be ignored")
	}
}

func TestTabBar_Draw_ClipsToWidth(t *testing.T) {
	tb := widgets.NewTabBar([]string{"Remote Gradebook", "Grade Export"})

	s, err := tb.Draw(testDrawContext(10, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rowText(s.Buffer, 10, 0); got != " 1 Remote " {
		t.Errorf("expected clipped label, got %q", got)
	}
}

func TestTabBar_Empty(t *testing.T) {
	tb := widgets.NewTabBar(nil)
	tb.Next()
	tb.Prev()
	if tb.Active() != 0 || tb.Len() != 0 {
		t.Errorf("expected empty tab bar to stay at 0, got %d", tb.Active())
	}
}
