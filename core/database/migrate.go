package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/taskbot/core/logger"
)

// RunMigrations waits for Postgres and applies every pending up
// migration from cfg.MigrationsDir.
func RunMigrations(cfg Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
	defer cancel()
	if err := waitReady(ctx, cfg.DSN()); err != nil {
		logger.Error(ctx, "db.migrate", "migrate.wait",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return err
	}

	dir, err := filepath.Abs(cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("resolve migrations dir: %w", err)
	}
	set, err := readMigrationSet(dir)
	if err != nil {
		return err
	}

	m, err := migrate.New("file://"+filepath.ToSlash(dir), cfg.URL())
	if err != nil {
		logger.Error(ctx, "db.migrate", "migrate.init",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("initialize migrations: %w", err)
	}
	defer m.Close()

	from := currentVersion(m)
	start := time.Now()
	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
	case err != nil:
		logger.Error(ctx, "db.migrate", "migrate.apply",
			slog.String("status", "fail"),
			slog.Uint64("from_ver", from),
			slog.String("err", err.Error()),
			slog.Duration("took", logger.Took(start)),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}
	to := currentVersion(m)

	applied := set.between(from, to)
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("path", dir),
		slog.Uint64("from_ver", from),
		slog.Uint64("to_ver", to),
		slog.Int("count", len(applied)),
		slog.Duration("took", logger.Took(start)),
	}
	if len(applied) > 0 {
		preview, more := logger.SummarizeStrings(applied.names(), 6)
		attrs = append(attrs, slog.String("files", preview), slog.Bool("files_truncated", more))
	}
	logger.Info(ctx, "db.migrate", "migrate.summary", attrs...)
	return nil
}

// currentVersion is 0 for a database that has never been migrated.
func currentVersion(m *migrate.Migrate) uint64 {
	v, _, err := m.Version()
	if err != nil {
		return 0
	}
	return uint64(v)
}

type migrationFile struct {
	version uint64
	name    string
}

// migrationSet is the up files of a directory sorted by version.
type migrationSet []migrationFile

func readMigrationSet(dir string) (migrationSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var set migrationSet
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("migration %s: version prefix is not a number", name)
		}
		set = append(set, migrationFile{version: v, name: name})
	}
	sort.Slice(set, func(i, j int) bool { return set[i].version < set[j].version })
	return set, nil
}

// between returns the files with from < version <= to.
func (s migrationSet) between(from, to uint64) migrationSet {
	var out migrationSet
	for _, f := range s {
		if f.version > from && f.version <= to {
			out = append(out, f)
		}
	}
	return out
}

func (s migrationSet) names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.name
	}
	return names
}
