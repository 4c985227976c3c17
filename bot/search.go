package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmcleod/vrchatbot/internal/util"
	"github.com/jmcleod/vrchatbot/vrchat"
)

// maxSearchResults caps how many results are listed for selection.
const maxSearchResults = 10

// searcher describes one searchable kind of record.
type searcher[T any] struct {
	prompt string
	empty  string
	found  string
	search func(ctx context.Context, c *vrchat.Client, query string, n, offset int) ([]T, error)
	label  func(T) string
	id     func(T) string
	detail func(ctx context.Context, c *vrchat.Client, r *request, id string) (string, error)
}

var userSearch = searcher[vrchat.LimitedUser]{
	prompt: "send_user_name",
	empty:  "no_user_found",
	found:  "searched_user_tip",
	search: func(ctx context.Context, c *vrchat.Client, query string, n, offset int) ([]vrchat.LimitedUser, error) {
		return c.SearchUsers(ctx, query, n, offset)
	},
	label: func(u vrchat.LimitedUser) string {
		return fmt.Sprintf("%s (%s)", u.DisplayName, u.ID)
	},
	id: func(u vrchat.LimitedUser) string { return u.ID },
	detail: func(ctx context.Context, c *vrchat.Client, r *request, id string) (string, error) {
		u, err := c.GetUser(ctx, id)
		if err != nil {
			return "", err
		}
		return formatUser(r, u), nil
	},
}

var worldSearch = searcher[vrchat.LimitedWorld]{
	prompt: "send_world_name",
	empty:  "no_world_found",
	found:  "searched_world_tip",
	search: func(ctx context.Context, c *vrchat.Client, query string, n, offset int) ([]vrchat.LimitedWorld, error) {
		return c.SearchWorlds(ctx, query, n, offset)
	},
	label: func(w vrchat.LimitedWorld) string {
		return fmt.Sprintf("%s by %s", w.Name, w.AuthorName)
	},
	id: func(w vrchat.LimitedWorld) string { return w.ID },
	detail: func(ctx context.Context, c *vrchat.Client, r *request, id string) (string, error) {
		w, err := c.GetWorld(ctx, id)
		if err != nil {
			return "", err
		}
		return formatWorld(r, w), nil
	},
}

var groupSearch = searcher[vrchat.LimitedGroup]{
	prompt: "send_group_name",
	empty:  "no_group_found",
	found:  "searched_group_tip",
	search: func(ctx context.Context, c *vrchat.Client, query string, n, offset int) ([]vrchat.LimitedGroup, error) {
		return c.SearchGroups(ctx, query, n, offset)
	},
	label: func(g vrchat.LimitedGroup) string {
		return fmt.Sprintf("%s (%s.%s)", g.Name, g.ShortCode, g.Discriminator)
	},
	id: func(g vrchat.LimitedGroup) string { return g.ID },
	detail: func(ctx context.Context, c *vrchat.Client, r *request, id string) (string, error) {
		g, err := c.GetGroup(ctx, id)
		if err != nil {
			return "", err
		}
		return formatGroup(r, g), nil
	},
}

func searchCommand[T any](b *Bot, s searcher[T]) handler {
	return func(ctx context.Context, r *request, args string) ([]string, step) {
		if args == "" {
			return []string{r.t(s.prompt)}, keywordStep(b, s)
		}
		return runSearch(ctx, b, s, r, args)
	}
}

func keywordStep[T any](b *Bot, s searcher[T]) step {
	var st step
	st = func(ctx context.Context, r *request, text string) ([]string, step) {
		if text == "" {
			return []string{r.t("empty_search_keyword")}, st
		}
		return runSearch(ctx, b, s, r, text)
	}
	return st
}

// runSearch searches with the caller's own client, or a borrowed one when
// the caller is not logged in, and lists the results for selection. A single
// result is shown directly.
func runSearch[T any](ctx context.Context, b *Bot, s searcher[T], r *request, query string) ([]string, step) {
	c, borrowed, err := b.sessions.GetOrRandomClient(ctx, r.sessionID)
	if err != nil {
		return []string{b.handleError(ctx, r, err)}, nil
	}
	results, err := vrchat.Collect(vrchat.Paginate(ctx, func(ctx context.Context, n, offset int) ([]T, error) {
		return s.search(ctx, c, query, n, offset)
	}, vrchat.PageOptions{Size: maxSearchResults, Max: maxSearchResults}))
	if err != nil {
		return withBorrowedNote(r, borrowed, []string{b.handleError(ctx, r, err)}), nil
	}
	if !borrowed {
		b.saveCookies(r, c)
	}

	switch len(results) {
	case 0:
		return withBorrowedNote(r, borrowed, []string{r.t(s.empty)}), nil
	case 1:
		return showDetail(ctx, b, s, r, c, borrowed, s.id(results[0])), nil
	}

	ids := make([]string, len(results))
	lines := make([]string, 0, len(results)+2)
	lines = append(lines, r.t(s.found, len(results)))
	for i, item := range results {
		ids[i] = s.id(item)
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, s.label(item)))
	}
	lines = append(lines, r.t("select_prompt"))
	return withBorrowedNote(r, borrowed, []string{strings.Join(lines, "\n")}), selectStep(b, s, c, borrowed, ids)
}

func selectStep[T any](b *Bot, s searcher[T], c *vrchat.Client, borrowed bool, ids []string) step {
	var st step
	st = func(ctx context.Context, r *request, text string) ([]string, step) {
		i, key := parseOrdinal(text, len(ids))
		switch key {
		case "":
			return showDetail(ctx, b, s, r, c, borrowed, ids[i]), nil
		case "discard_select":
			return []string{r.t(key)}, nil
		default:
			return []string{r.t(key)}, st
		}
	}
	return st
}

func showDetail[T any](ctx context.Context, b *Bot, s searcher[T], r *request, c *vrchat.Client, borrowed bool, id string) []string {
	text, err := s.detail(ctx, c, r, id)
	if err != nil {
		return withBorrowedNote(r, borrowed, []string{b.handleError(ctx, r, err)})
	}
	return withBorrowedNote(r, borrowed, []string{text})
}

// parseOrdinal reads a 1-based list position. It returns the 0-based index,
// or the message key to reply with: "discard_select" for 0, otherwise a
// format or range complaint.
func parseOrdinal(text string, n int) (int, string) {
	text = util.NormalizeInput(text)
	if !util.IsDigits(text) {
		return 0, "invalid_ordinal_format"
	}
	i, err := strconv.Atoi(text)
	if err != nil {
		return 0, "invalid_ordinal_range"
	}
	switch {
	case i == 0:
		return 0, "discard_select"
	case i > n:
		return 0, "invalid_ordinal_range"
	}
	return i - 1, ""
}
