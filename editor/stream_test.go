package editor

import (
	"strings"
	"testing"

	"github.com/buildflow/buildflow/markup"
)

func TestStreamerProgressiveTagging(t *testing.T) {
	st := NewStreamer()

	// First chunk ends mid-tag.
	snap := st.Append(`<div class="page"><h1>Hello</h1><p cla`)
	if !strings.Contains(snap, markup.IDAttr) {
		t.Errorf("complete elements not tagged in truncated snapshot:\n%s", snap)
	}
	// The truncated <p must not be tagged or mangled.
	if strings.Contains(snap[strings.Index(snap, "<p cla"):], markup.IDAttr) {
		t.Errorf("incomplete tag was touched:\n%s", snap)
	}

	snap = st.Append(`ss="lead">world</p></div>`)
	for _, tag := range []string{"<div", "<h1", "<p"} {
		idx := strings.Index(snap, tag)
		if idx < 0 || !strings.Contains(snap[idx:min(idx+len(tag)+60, len(snap))], markup.IDAttr) {
			t.Errorf("%s not tagged in final snapshot:\n%s", tag, snap)
		}
	}
}

func TestStreamerFinalSanitizes(t *testing.T) {
	st := NewStreamer()
	st.Append(`<div><scr`)
	st.Append(`ipt>alert(1)</script><p>ok</p></div>`)

	final := st.Final()
	if strings.Contains(final, "script") {
		t.Errorf("script survived Final:\n%s", final)
	}
	if !strings.Contains(final, "<p") || !strings.Contains(final, "ok") {
		t.Errorf("content lost in Final:\n%s", final)
	}
	if st.Len() == 0 {
		t.Error("Len lost the accumulated bytes")
	}
}

func TestStreamerSnapshotIdentifiersIndependent(t *testing.T) {
	// Snapshots are throwaway renders: tagging the accumulated string anew
	// on each Append must never corrupt the underlying buffer.
	st := NewStreamer()
	st.Append(`<div>`)
	st.Append(`<p>x</p>`)
	snap := st.Append(`</div>`)

	if stripped := markup.StripIdentifiers(snap); stripped != `<div><p>x</p></div>` {
		t.Errorf("buffer corrupted across snapshots: %q", stripped)
	}
}
