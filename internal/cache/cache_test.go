package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type entry struct {
	ID   uint
	Name string
}

func TestGetOrLoadMsgpack(t *testing.T) {
	t.Parallel()

	cached, err := msgpack.Marshal([]entry{{ID: 1, Name: "Books"}})
	require.NoError(t, err)

	tests := []struct {
		name      string
		setup     func(mock redismock.ClientMock, fresh []byte)
		loadErr   error
		wantLoads int
		want      []entry
		wantErr   bool
	}{
		{
			name: "hit",
			setup: func(mock redismock.ClientMock, _ []byte) {
				mock.ExpectGet("categories").SetVal(string(cached))
			},
			wantLoads: 0,
			want:      []entry{{ID: 1, Name: "Books"}},
		},
		{
			name: "miss stores loaded value",
			setup: func(mock redismock.ClientMock, fresh []byte) {
				mock.ExpectGet("categories").RedisNil()
				mock.ExpectSet("categories", fresh, time.Minute).SetVal("OK")
			},
			wantLoads: 1,
			want:      []entry{{ID: 2, Name: "Food"}},
		},
		{
			name: "redis down still loads",
			setup: func(mock redismock.ClientMock, fresh []byte) {
				mock.ExpectGet("categories").SetErr(errors.New("connection refused"))
				mock.ExpectSet("categories", fresh, time.Minute).SetErr(errors.New("connection refused"))
			},
			wantLoads: 1,
			want:      []entry{{ID: 2, Name: "Food"}},
		},
		{
			name: "loader error",
			setup: func(mock redismock.ClientMock, _ []byte) {
				mock.ExpectGet("categories").RedisNil()
			},
			loadErr:   errors.New("db down"),
			wantLoads: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, mock := redismock.NewClientMock()
			fresh := []entry{{ID: 2, Name: "Food"}}
			freshBytes, err := msgpack.Marshal(fresh)
			require.NoError(t, err)
			tt.setup(mock, freshBytes)

			c := New(db)
			loads := 0
			got, err := GetOrLoadMsgpack(c, context.Background(), "categories", time.Minute, func(context.Context) ([]entry, error) {
				loads++
				if tt.loadErr != nil {
					return nil, tt.loadErr
				}
				return fresh, nil
			})

			assert.Equal(t, tt.wantLoads, loads)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDisabledCacheCallsLoader(t *testing.T) {
	t.Parallel()

	c := Dial("", "", 0)
	assert.False(t, c.Enabled())

	b, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return []byte("v"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), b)
	assert.NoError(t, c.Invalidate(context.Background(), "k"))
	assert.NoError(t, c.Close())
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	mock.ExpectDel("categories").SetVal(1)

	require.NoError(t, New(db).Invalidate(context.Background(), "categories"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
