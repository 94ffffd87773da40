package compare

import (
	"testing"
	"time"
)

func TestValuesNullsAfterEverything(t *testing.T) {
	if Values(nil, "anything") <= 0 {
		t.Error("Expected nil to sort after a value")
	}
	if Values("anything", nil) >= 0 {
		t.Error("Expected a value to sort before nil")
	}
	if Values(nil, nil) != 0 {
		t.Error("Expected two nils to compare equal")
	}
}

func TestValuesDates(t *testing.T) {
	if Values("2024-01-02", "2024-01-10") >= 0 {
		t.Error("Expected the earlier date to sort first")
	}
	if Values("2024-01-02T10:00:00Z", "2024-01-02") <= 0 {
		t.Error("Expected midnight to sort before mid-morning")
	}
	if Values(time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), "2024-01-01") >= 0 {
		t.Error("Expected time.Time and date string to compare on the same axis")
	}
	// One date and one non-date compare as strings.
	if Values("2024-01-02", "zzz") >= 0 {
		t.Error("Expected mixed date/non-date to fall back to string order")
	}
}

func TestValuesNumbers(t *testing.T) {
	if Values(2, 10) >= 0 {
		t.Error("Expected 2 < 10")
	}
	if Values("2", "10") >= 0 {
		t.Error("Expected numeric strings to compare by value")
	}
	if Values("007", 7) != 0 {
		t.Error("Expected 007 to equal 7 numerically")
	}
	if Values(" 42 ", 41.5) <= 0 {
		t.Error("Expected padded numeric string to compare by value")
	}
}

func TestValuesNaturalStrings(t *testing.T) {
	if Values("item2", "item10") >= 0 {
		t.Error("Expected item2 to sort before item10")
	}
	if Values("Apple", "apple") != 0 {
		t.Error("Expected case-insensitive equality")
	}
	if Values("alpha", "Beta") >= 0 {
		t.Error("Expected alpha before Beta regardless of case")
	}
}

func TestValuesEmptyStringIsNotZero(t *testing.T) {
	// "" fails numeric classification and compares as a string, so it
	// sorts before "-1" lexicographically instead of between -1 and 1.
	if Values("", "-1") >= 0 {
		t.Error("Expected empty string to compare as a string, not as zero")
	}
	if Values("", nil) >= 0 {
		t.Error("Expected empty string to sort before nil")
	}
}

func TestDateValueStrictShape(t *testing.T) {
	valid := []string{
		"2024-01-02",
		"2024-01-02T15:04:05",
		"2024-01-02T15:04:05.123",
		"2024-01-02T15:04:05Z",
		"2024-01-02T15:04:05+02:00",
	}
	for _, s := range valid {
		if _, ok := DateValue(s); !ok {
			t.Errorf("Expected %q to classify as a date", s)
		}
	}
	invalid := []string{
		"2024",
		"2024-1-2",
		"02/01/2024",
		"2024-01-02 15:04:05",
		"2024-13-40",
	}
	for _, s := range invalid {
		if _, ok := DateValue(s); ok {
			t.Errorf("Expected %q not to classify as a date", s)
		}
	}
}

func TestNumericValueStrictShape(t *testing.T) {
	if v, ok := NumericValue("-12.5"); !ok || v != -12.5 {
		t.Errorf("Expected -12.5, got %v (%v)", v, ok)
	}
	if _, ok := NumericValue("12."); ok {
		t.Error("Expected trailing dot to fail classification")
	}
	if _, ok := NumericValue("1e3"); ok {
		t.Error("Expected exponent notation to fail classification")
	}
	if _, ok := NumericValue(""); ok {
		t.Error("Expected empty string to fail classification")
	}
	if _, ok := NumericValue("12a"); ok {
		t.Error("Expected trailing garbage to fail classification")
	}
}

func TestNatural(t *testing.T) {
	ordered := []string{"a1", "a2", "a10", "a10b", "b"}
	for i := 0; i < len(ordered)-1; i++ {
		if Natural(ordered[i], ordered[i+1]) >= 0 {
			t.Errorf("Expected %q before %q", ordered[i], ordered[i+1])
		}
	}
	if Natural("7", "007") >= 0 {
		t.Error("Expected 7 before 007 on the leading zero tiebreak")
	}
	if Natural("a07b1", "a07b2") >= 0 {
		t.Error("Expected the walk to continue past equal runs")
	}
}
