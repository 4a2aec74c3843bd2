package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/jobxpress/creditgate/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestNewStore_NoAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded)).
		AnyTimes()

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), 250*time.Millisecond); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestWaitForReady_RetriesUntilUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("PING")).
			Return(mock.ErrorResult(errors.New("LOADING"))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("PING")).
			Return(mock.Result(mock.RedisString("PONG"))),
	)

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- commands.go tests ---

func TestHSet_SortedFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HSET", "creditgate:account:u1", "credits", "5", "plan", "FREE")).
		Return(mock.Result(mock.RedisInt64(2)))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "creditgate:account:u1", map[string]string{"plan": "FREE", "credits": "5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSet_NoFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := NewStoreForTest(mock.NewClient(ctrl))

	if err := s.HSet(context.Background(), "k", nil); !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestHSet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "k", map[string]string{"f": "v"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestHGetAll_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "creditgate:account:u1")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"plan":    mock.RedisString("PRO"),
			"credits": mock.RedisString("300"),
		})))

	s := NewStoreForTest(c)
	m, err := s.HGetAll(context.Background(), "creditgate:account:u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["plan"] != "PRO" || m["credits"] != "300" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestHGetAll_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "k")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.HGetAll(context.Background(), "k")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "creditgate:email:a@b.c")).
		Return(mock.Result(mock.RedisBlobString("u1")))

	s := NewStoreForTest(c)
	data, err := s.Get(context.Background(), "creditgate:email:a@b.c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "u1" {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "k")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestSet_NoExpiry(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetWithTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want []string
	}{
		{"seconds", 72 * time.Hour, []string{"SET", "evt", "v", "EX", "259200"}},
		{"millis", 1500 * time.Millisecond, []string{"SET", "evt", "v", "PX", "1500"}},
		{"forever", 0, []string{"SET", "evt", "v"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)

			c.EXPECT().
				Do(gomock.Any(), mock.Match(tc.want...)).
				Return(mock.Result(mock.RedisString("OK")))

			s := NewStoreForTest(c)
			if err := s.SetWithTTL(context.Background(), "evt", []byte("v"), tc.ttl); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSetWithTTL_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "SET" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), time.Minute); !isDBError(err) {
		t.Errorf("expected db.Error, got %v", err)
	}
}

// --- script.go tests ---

const decrScript = `return redis.call('DECRBY', KEYS[1], ARGV[1])`

func TestRunScript_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("EVAL", decrScript, "1", "balance", "2")).
		Return(mock.Result(mock.RedisInt64(3))).
		Times(2)

	s := NewStoreForTest(c)
	for range 2 {
		n, err := s.RunScript(context.Background(), decrScript, []string{"balance"}, []string{"2"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 3 {
			t.Errorf("RunScript = %d, want 3", n)
		}
	}
	if len(s.scripts) != 1 {
		t.Errorf("scripts cached = %d, want 1", len(s.scripts))
	}
}

func TestRunScript_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "EVAL" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.RunScript(context.Background(), decrScript, []string{"balance"}, []string{"2"})
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %v", err)
	}
}

func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
