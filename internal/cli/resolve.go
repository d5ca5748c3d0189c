package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/tgienger/ultralist/internal/db"
	"github.com/tgienger/ultralist/internal/models"
)

const dateLayout = "2006-01-02"

// resolveTask accepts a full task id or a unique prefix of one
func (a *app) resolveTask(ctx context.Context, ref string) (models.TaskWithDetails, error) {
	if ref == "" {
		return models.TaskWithDetails{}, fmt.Errorf("task id is required")
	}

	t, err := a.store.GetTask(ctx, ref)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return models.TaskWithDetails{}, err
	}

	tasks, err := a.store.ListTasksWithDetails(ctx)
	if err != nil {
		return models.TaskWithDetails{}, err
	}
	var matches []models.TaskWithDetails
	for _, t := range tasks {
		if strings.HasPrefix(t.Task.ID, ref) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return models.TaskWithDetails{}, fmt.Errorf("task %s not found", ref)
	case 1:
		return matches[0], nil
	default:
		return models.TaskWithDetails{}, fmt.Errorf("task id %s is ambiguous (%d matches)", ref, len(matches))
	}
}

// resolveProject accepts a numeric id or a project name (case-insensitive)
func (a *app) resolveProject(ctx context.Context, ref string) (models.Project, error) {
	var (
		p   models.Project
		err error
	)
	if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
		p, err = a.store.GetProject(ctx, id)
	} else {
		p, err = a.store.FindProjectByName(ctx, ref)
	}
	if errors.Is(err, db.ErrNotFound) {
		return models.Project{}, fmt.Errorf("project %s not found", ref)
	}
	return p, err
}

// resolveFolder accepts a numeric id or a folder name (case-insensitive)
func (a *app) resolveFolder(ctx context.Context, ref string) (models.Folder, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		f, err := a.store.GetFolder(ctx, id)
		if errors.Is(err, db.ErrNotFound) {
			return models.Folder{}, fmt.Errorf("folder %s not found", ref)
		}
		return f, err
	}

	folders, err := a.store.ListFolders(ctx)
	if err != nil {
		return models.Folder{}, err
	}
	for _, f := range folders {
		if strings.EqualFold(f.Name, ref) {
			return f, nil
		}
	}
	return models.Folder{}, fmt.Errorf("folder %s not found", ref)
}

// defaultProject returns the configured default project, or nil when none is set
func (a *app) defaultProject(ctx context.Context) (*models.Project, error) {
	if a.cfg == nil || a.cfg.DefaultProject == "" {
		return nil, nil
	}
	p, err := a.resolveProject(ctx, a.cfg.DefaultProject)
	if err != nil {
		return nil, fmt.Errorf("default project: %w", err)
	}
	return &p, nil
}

// subtaskAt returns the n-th (1-based) subtask of t
func subtaskAt(t models.TaskWithDetails, n string) (models.Subtask, error) {
	i, err := strconv.Atoi(n)
	if err != nil || i < 1 || i > len(t.Subtasks) {
		return models.Subtask{}, fmt.Errorf("task %s has no subtask %s", shortID(t.Task.ID), n)
	}
	return t.Subtasks[i-1], nil
}

func parsePriority(s string) (models.Priority, error) {
	p := models.Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("invalid priority %q (want low, medium or high)", s)
	}
	return p, nil
}

func parseDueDate(s string) (string, error) {
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", fmt.Errorf("invalid due date %q (want YYYY-MM-DD)", s)
	}
	return s, nil
}

// normalizeTags lower-cases tags and drops a leading '#' and empty entries
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func confirmDelete(force bool, msg string) error {
	if force {
		return nil
	}
	var ok bool
	if err := huh.NewConfirm().Title(msg).Value(&ok).Run(); err != nil || !ok {
		return fmt.Errorf("deletion cancelled")
	}
	return nil
}
