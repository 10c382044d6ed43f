package stats

import (
	"testing"

	"occurrences/internal/model"
)

func mk(id int64, status model.Status, cat model.Category, pri model.Priority) model.Record {
	return model.Record{ID: id, Status: status, Category: cat, Priority: pri}
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(nil)

	if s.Total != 0 || s.Resolved != 0 || s.Pending != 0 || s.Urgent != 0 {
		t.Errorf("Aggregate(nil) = %+v, expected zero counts", s)
	}
	if len(s.PerCategory) != len(model.Categories) {
		t.Errorf("PerCategory has %d entries, expected %d", len(s.PerCategory), len(model.Categories))
	}
	if len(s.Categories) != 0 {
		t.Errorf("Categories = %v, expected none visible", s.Categories)
	}
	for c, cs := range s.PerCategory {
		if cs.Percent != 0 {
			t.Errorf("%s percent = %d, expected 0", c, cs.Percent)
		}
	}
}

func TestAggregate_UrgentCount(t *testing.T) {
	records := []model.Record{
		mk(1, model.StatusUnresolved, model.CategoryOther, model.PriorityLow),
		mk(2, model.StatusUnresolved, model.CategoryOther, model.PriorityUrgent),
		mk(3, model.StatusResolved, model.CategoryOther, model.PriorityUrgent),
	}

	s := Aggregate(records)
	if s.Urgent != 2 {
		t.Errorf("Urgent = %d, expected 2", s.Urgent)
	}
}

func TestAggregate_Counts(t *testing.T) {
	records := []model.Record{
		mk(1, model.StatusResolved, model.CategoryTraffic, model.PriorityLow),
		mk(2, model.StatusUnresolved, model.CategoryTraffic, model.PriorityHigh),
		mk(3, model.StatusUnresolved, model.CategoryTraffic, model.PriorityMedium),
		mk(4, model.StatusResolved, model.CategorySecurity, model.PriorityHigh),
		mk(5, model.StatusResolved, model.Category("unknown"), model.PriorityHigh),
	}

	s := Aggregate(records)

	if s.Total != 5 || s.Resolved != 3 || s.Pending != 2 {
		t.Errorf("total/resolved/pending = %d/%d/%d, expected 5/3/2", s.Total, s.Resolved, s.Pending)
	}
	if s.Resolved+s.Pending != s.Total {
		t.Error("resolved + pending != total")
	}

	traffic := s.PerCategory[model.CategoryTraffic]
	if traffic.Count != 3 || traffic.ResolvedCount != 1 || traffic.Percent != 33 {
		t.Errorf("traffic = %+v, expected 3/1/33%%", traffic)
	}
	security := s.PerCategory[model.CategorySecurity]
	if security.Percent != 100 {
		t.Errorf("security percent = %d, expected 100", security.Percent)
	}

	for c, cs := range s.PerCategory {
		if cs.ResolvedCount > cs.Count {
			t.Errorf("%s resolvedCount %d > count %d", c, cs.ResolvedCount, cs.Count)
		}
	}

	if len(s.Categories) != 2 || s.Categories[0].Category != model.CategorySecurity || s.Categories[1].Category != model.CategoryTraffic {
		t.Errorf("visible categories = %+v, expected security then traffic", s.Categories)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, whole, expected int
	}{
		{0, 0, 0},
		{1, 2, 50},
		{2, 3, 67},
		{1, 8, 13},
		{5, 5, 100},
	}

	for _, tt := range tests {
		if got := Percent(tt.part, tt.whole); got != tt.expected {
			t.Errorf("Percent(%d, %d) = %d, expected %d", tt.part, tt.whole, got, tt.expected)
		}
	}
}
