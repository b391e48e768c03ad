package designs

import (
	"context"
	"errors"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/buildflow/buildflow/dbopen"
	"github.com/buildflow/buildflow/markup"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	return NewStore(db)
}

func TestCreateStripsIdentifiers(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	tagged := markup.TagRandom(`<div class="hero"><span>Hi</span></div>`)
	if !strings.Contains(tagged, markup.IDAttr) {
		t.Fatal("precondition: tagging added nothing")
	}

	id, err := s.Create(ctx, "landing", tagged)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	raw, err := s.LoadRaw(ctx, id)
	if err != nil {
		t.Fatalf("LoadRaw: %v", err)
	}
	if strings.Contains(raw.Document, markup.IDAttr) {
		t.Errorf("stored document still carries identifiers: %s", raw.Document)
	}
	if raw.Document != `<div class="hero"><span>Hi</span></div>` {
		t.Errorf("stored document altered: %s", raw.Document)
	}
}

func TestLoadReTags(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "landing", `<div><p>text</p></div>`)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	d, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if strings.Count(d.Document, markup.IDAttr) != 2 {
		t.Errorf("loaded document not fully tagged: %s", d.Document)
	}
	if markup.StripIdentifiers(d.Document) != `<div><p>text</p></div>` {
		t.Errorf("tagging altered structure: %s", d.Document)
	}
}

func TestSaveAndList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "a", `<div>one</div>`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, "b", `<div>two</div>`); err != nil {
		t.Fatal(err)
	}

	if err := s.Save(ctx, id, `<div>one edited</div>`); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := s.LoadRaw(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if raw.Document != `<div>one edited</div>` {
		t.Errorf("Save did not persist: %s", raw.Document)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List: got %d designs, want 2", len(list))
	}
	if list[0].Document != "" {
		t.Error("List should not include documents")
	}

	if err := s.Save(ctx, "dsn_missing", "<div/>"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Save unknown = %v, want ErrNotFound", err)
	}
}

func TestRenameAndDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "old", `<div/>`)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Rename(ctx, id, "new"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	d, err := s.LoadRaw(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "new" {
		t.Errorf("name = %q, want %q", d.Name, "new")
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}
