package event

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name      string
		dateText  string
		wantYear  int
		wantMonth time.Month
		wantDay   int
		wantZero  bool
	}{
		{
			name:      "Full date 29.01.2026",
			dateText:  "29.01.2026",
			wantYear:  2026,
			wantMonth: time.January,
			wantDay:   29,
		},
		{
			name:      "Single digit day and month 2.3.2026",
			dateText:  "2.3.2026",
			wantYear:  2026,
			wantMonth: time.March,
			wantDay:   2,
		},
		{
			name:      "Short year 15.01.26",
			dateText:  "15.01.26",
			wantYear:  2026,
			wantMonth: time.January,
			wantDay:   15,
		},
		{
			name:      "ISO date",
			dateText:  "2026-02-05",
			wantYear:  2026,
			wantMonth: time.February,
			wantDay:   5,
		},
		{
			name:      "Trailing punctuation",
			dateText:  "12.01.2026,",
			wantYear:  2026,
			wantMonth: time.January,
			wantDay:   12,
		},
		{
			name:      "Day and month only",
			dateText:  "24.12",
			wantYear:  time.Now().In(Warsaw).Year(),
			wantMonth: time.December,
			wantDay:   24,
		},
		{
			name:     "Empty string",
			dateText: "",
			wantZero: true,
		},
		{
			name:     "Invalid format",
			dateText: "jutro",
			wantZero: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.dateText)

			if tt.wantZero {
				if !got.IsZero() {
					t.Errorf("ParseDate(%q) = %v, want zero time", tt.dateText, got)
				}
				return
			}

			if got.Year() != tt.wantYear {
				t.Errorf("ParseDate(%q).Year() = %d, want %d", tt.dateText, got.Year(), tt.wantYear)
			}
			if got.Month() != tt.wantMonth {
				t.Errorf("ParseDate(%q).Month() = %v, want %v", tt.dateText, got.Month(), tt.wantMonth)
			}
			if got.Day() != tt.wantDay {
				t.Errorf("ParseDate(%q).Day() = %d, want %d", tt.dateText, got.Day(), tt.wantDay)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, ok := ParseClock("18:30,")
	if !ok || h != 18 || m != 30 {
		t.Errorf("ParseClock(18:30,) = %d, %d, %v", h, m, ok)
	}
	if _, _, ok := ParseClock("wieczorem"); ok {
		t.Error("ParseClock should reject non-clock text")
	}
}

func TestEvent_Start(t *testing.T) {
	single := &Event{Date: "29.01.2026", Time: "18:00"}
	want := time.Date(2026, time.January, 29, 18, 0, 0, 0, Warsaw)
	if got := single.Start(); !got.Equal(want) {
		t.Errorf("Start() = %v, want %v", got, want)
	}
	if got := single.End(); !got.Equal(want) {
		t.Errorf("End() = %v, want %v", got, want)
	}

	interval := &Event{StartDate: "12.01.2026", EndDate: "15.01.2026"}
	if got := interval.Start(); got.Day() != 12 {
		t.Errorf("Start().Day() = %d, want 12", got.Day())
	}
	if got := interval.End(); got.Day() != 15 {
		t.Errorf("End().Day() = %d, want 15", got.Day())
	}

	noTime := &Event{Date: "29.01.2026", Time: "Wola"}
	if got := noTime.Start(); got.Hour() != 0 || got.Day() != 29 {
		t.Errorf("Start() without clock = %v, want midnight of the 29th", got)
	}
}

func TestEvent_IsPastEvent(t *testing.T) {
	tests := []struct {
		name string
		evt  *Event
		want bool
	}{
		{"Past single date", &Event{Date: "01.01.2020", Time: "10:00"}, true},
		{"Future single date", &Event{Date: "31.12.2099", Time: "10:00"}, false},
		{"Past interval", &Event{StartDate: "01.01.2020", EndDate: "05.01.2020"}, true},
		{"Running interval", &Event{StartDate: "01.01.2020", EndDate: "31.12.2099"}, false},
		{"Unparseable date", &Event{Date: "wkrótce"}, false}, // Safe default: don't filter
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.evt.IsPastEvent(); got != tt.want {
				t.Errorf("IsPastEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDays(t *testing.T) {
	start := time.Date(2026, time.January, 30, 15, 0, 0, 0, Warsaw)
	end := time.Date(2026, time.February, 2, 0, 0, 0, 0, Warsaw)

	days := Days(start, end)
	if len(days) != 4 {
		t.Fatalf("Days() returned %d days, want 4", len(days))
	}
	if days[0].Day() != 30 || days[3].Day() != 2 || days[3].Month() != time.February {
		t.Errorf("Days() = %v", days)
	}
	if days[0].Hour() != 0 {
		t.Error("Days() should truncate to midnight")
	}

	if got := Days(end, start); got != nil {
		t.Errorf("Days(end, start) = %v, want nil", got)
	}
	if got := Days(start, start); len(got) != 1 {
		t.Errorf("Days(start, start) = %v, want one day", got)
	}
}
