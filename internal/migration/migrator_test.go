package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

type fakeStore struct {
	mu      sync.Mutex
	applied []string
	failOn  string
	listErr error
}

func (s *fakeStore) ListApplied(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]string{}, s.applied...), nil
}

func (s *fakeStore) Apply(_ context.Context, fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == fileName {
		return errors.New("store write refused")
	}
	for _, a := range s.applied {
		if a == fileName {
			return fmt.Errorf("%s: duplicate record", fileName)
		}
	}
	s.applied = append(s.applied, fileName)
	return nil
}

type fakeLister struct {
	names []string
	err   error
}

func (l *fakeLister) List() ([]Migration, error) {
	if l.err != nil {
		return nil, l.err
	}
	migrations := make([]Migration, 0, len(l.names))
	for _, n := range l.names {
		m, err := ParseFileName(n)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, m)
	}
	return migrations, nil
}

// fakeLoader produces steps that record their execution and can be told to
// fail loading or running specific migrations.
type fakeLoader struct {
	loadErr  map[string]error
	runErr   map[string]error
	executed []string
}

func (l *fakeLoader) Load(m Migration) (Step, error) {
	if err := l.loadErr[m.FileName]; err != nil {
		return nil, err
	}
	name := m.FileName
	return StepFunc(func(ctx context.Context, db *mongo.Database) error {
		l.executed = append(l.executed, name)
		return l.runErr[name]
	}), nil
}

const (
	mig1 = "20240101_000000.first.yaml"
	mig2 = "20240102_000000.second.yaml"
	mig3 = "20240103_000000.third.yaml"
)

func newMigrator(lister Lister, st *fakeStore, loader *fakeLoader) *Migrator {
	return &Migrator{Source: lister, Store: st, Loader: loader}
}

func TestMigrateUp_AppliesPendingInOrder(t *testing.T) {
	// discovery order is deliberately scrambled
	lister := &fakeLister{names: []string{mig3, mig1, mig2}}
	st := &fakeStore{}
	loader := &fakeLoader{}

	applied, err := newMigrator(lister, st, loader).MigrateUp(context.Background())
	if err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	want := []string{mig1, mig2, mig3}
	for i, n := range want {
		if applied[i] != n || loader.executed[i] != n || st.applied[i] != n {
			t.Fatalf("position %d: applied=%v executed=%v recorded=%v", i, applied, loader.executed, st.applied)
		}
	}
}

func TestMigrateUp_OnlyPendingRun(t *testing.T) {
	lister := &fakeLister{names: []string{mig1, mig2, mig3}}
	st := &fakeStore{applied: []string{mig1, mig3}}
	loader := &fakeLoader{}

	applied, err := newMigrator(lister, st, loader).MigrateUp(context.Background())
	if err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if len(applied) != 1 || applied[0] != mig2 {
		t.Fatalf("expected only %s, got %v", mig2, applied)
	}
	if len(loader.executed) != 1 {
		t.Fatalf("expected exactly one execution, got %v", loader.executed)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	lister := &fakeLister{names: []string{mig1, mig2}}
	st := &fakeStore{}
	loader := &fakeLoader{}
	m := newMigrator(lister, st, loader)

	if _, err := m.MigrateUp(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	applied, err := m.MigrateUp(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("second run applied %v, want none", applied)
	}
	if len(loader.executed) != 2 {
		t.Fatalf("migrations re-executed: %v", loader.executed)
	}
}

func TestMigrateUp_FailFastAndResume(t *testing.T) {
	lister := &fakeLister{names: []string{mig1, mig2, mig3}}
	st := &fakeStore{}
	loader := &fakeLoader{runErr: map[string]error{mig2: errors.New("boom")}}
	m := newMigrator(lister, st, loader)

	applied, err := m.MigrateUp(context.Background())
	if err == nil {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(err.Error(), mig2) {
		t.Fatalf("error does not name the failing migration: %v", err)
	}
	if len(applied) != 1 || applied[0] != mig1 {
		t.Fatalf("expected only %s committed, got %v", mig1, applied)
	}
	if len(st.applied) != 1 {
		t.Fatalf("store should only hold %s, got %v", mig1, st.applied)
	}
	// the third migration was never attempted
	for _, e := range loader.executed {
		if e == mig3 {
			t.Fatalf("third migration ran after failure")
		}
	}

	// simulate a fixed migration and a process restart
	loader.runErr = nil
	loader.executed = nil
	applied, err = m.MigrateUp(context.Background())
	if err != nil {
		t.Fatalf("resume run: %v", err)
	}
	if len(applied) != 2 || applied[0] != mig2 || applied[1] != mig3 {
		t.Fatalf("resume applied %v, want [%s %s]", applied, mig2, mig3)
	}
}

func TestMigrateUp_LoadFailureAborts(t *testing.T) {
	lister := &fakeLister{names: []string{mig1, mig2}}
	st := &fakeStore{}
	loader := &fakeLoader{loadErr: map[string]error{mig1: fmt.Errorf("%s: %w", mig1, ErrNoUpOperation)}}

	applied, err := newMigrator(lister, st, loader).MigrateUp(context.Background())
	if !errors.Is(err, ErrNoUpOperation) {
		t.Fatalf("expected ErrNoUpOperation, got %v", err)
	}
	if len(applied) != 0 || len(loader.executed) != 0 {
		t.Fatalf("nothing should have run: applied=%v executed=%v", applied, loader.executed)
	}
}

func TestMigrateUp_RecordFailureAborts(t *testing.T) {
	lister := &fakeLister{names: []string{mig1, mig2}}
	st := &fakeStore{failOn: mig1}
	loader := &fakeLoader{}

	applied, err := newMigrator(lister, st, loader).MigrateUp(context.Background())
	if err == nil || !strings.Contains(err.Error(), "record apply") {
		t.Fatalf("expected record apply error, got %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("an uncommitted migration was reported applied: %v", applied)
	}
	// mig2 must not run after the commit failure
	if len(loader.executed) != 1 || loader.executed[0] != mig1 {
		t.Fatalf("unexpected executions: %v", loader.executed)
	}
}

func TestMigrateUp_ToBound(t *testing.T) {
	lister := &fakeLister{names: []string{mig1, mig2, mig3}}
	st := &fakeStore{}
	loader := &fakeLoader{}
	m := newMigrator(lister, st, loader)
	m.To = "20240102_000000"

	applied, err := m.MigrateUp(context.Background())
	if err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if len(applied) != 2 || applied[1] != mig2 {
		t.Fatalf("bound ignored: %v", applied)
	}
}

func TestMigrateUp_DiscoveryErrors(t *testing.T) {
	st := &fakeStore{}
	loader := &fakeLoader{}

	if _, err := newMigrator(&fakeLister{err: errors.New("no dir")}, st, loader).MigrateUp(context.Background()); err == nil {
		t.Fatalf("expected candidate listing error")
	}

	st2 := &fakeStore{listErr: errors.New("store down")}
	if _, err := newMigrator(&fakeLister{names: []string{mig1}}, st2, loader).MigrateUp(context.Background()); err == nil {
		t.Fatalf("expected applied listing error")
	}
	if len(loader.executed) != 0 {
		t.Fatalf("migrations ran despite discovery failure")
	}
}

func TestLatestOf(t *testing.T) {
	if got := latestOf(nil); got != "" {
		t.Fatalf("latestOf(nil) = %q", got)
	}
	if got := latestOf([]string{mig2, mig3, mig1}); got != mig3 {
		t.Fatalf("latestOf = %q, want %q", got, mig3)
	}
}
