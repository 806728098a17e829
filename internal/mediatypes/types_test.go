package mediatypes

import "testing"

func TestKindForExt(t *testing.T) {
	tests := []struct {
		ext  string
		want Kind
	}{
		{".jpg", KindPhoto},
		{".jpeg", KindPhoto},
		{".png", KindPhoto},
		{".heic", KindPhoto},
		{".mp4", KindVideo},
		{".mkv", KindVideo},
		{".mov", KindVideo},
		{".txt", KindOther},
		{".exe", KindOther},
		{"", KindOther},
	}

	for _, tt := range tests {
		if got := KindForExt(tt.ext); got != tt.want {
			t.Errorf("KindForExt(%q) = %v, want %v", tt.ext, got, tt.want)
		}
	}
}

func TestIsIndexable(t *testing.T) {
	if !IsIndexable(".jpg") {
		t.Error("expected .jpg to be indexable")
	}
	if !IsIndexable(".mp4") {
		t.Error("expected .mp4 to be indexable")
	}
	if IsIndexable(".doc") {
		t.Error("expected .doc not to be indexable")
	}
}
