package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/jobxpress/creditgate/internal/db"
)

// RunScript evaluates a Lua script and returns its integer reply.
// Scripts are sent with EVAL; they are small and rarely hot enough for EVALSHA caching to matter.
func (s *Store) RunScript(ctx context.Context, src string, keys, args []string) (int64, error) {
	n, err := s.script(src).Exec(ctx, s.client, keys, args).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpEval, Err: err}
	}
	return n, nil
}

func (s *Store) script(src string) *rueidis.Lua {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.scripts[src]
	if !ok {
		l = rueidis.NewLuaScriptNoSha(src)
		s.scripts[src] = l
	}
	return l
}
