package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
)

type countingSource struct {
	calls int
	seats []model.SeatRecord
	err   error
}

func (s *countingSource) SeatMap(context.Context, uint64) ([]model.SeatRecord, error) {
	s.calls++
	return s.seats, s.err
}

func TestSeatMapCacheMissThenHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	src := &countingSource{seats: model.GenerateSeatGrid(1, 2)}
	cache := NewSeatMapCache(rdb, src, time.Minute, "seatmap", nil)
	payload, err := json.Marshal(src.seats)
	require.NoError(t, err)

	mock.ExpectGet("seatmap:3:gen").RedisNil()
	mock.ExpectGet("seatmap:3:0").RedisNil()
	mock.ExpectSet("seatmap:3:0", payload, time.Minute).SetVal("OK")
	mock.ExpectGet("seatmap:3:gen").RedisNil()
	mock.ExpectGet("seatmap:3:0").SetVal(string(payload))

	got, err := cache.SeatMap(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, src.seats, got)

	got, err = cache.SeatMap(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, src.seats, got)
	assert.Equal(t, 1, src.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatMapCacheFallsBackOnRedisError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	src := &countingSource{seats: model.GenerateSeatGrid(1, 1)}
	cache := NewSeatMapCache(rdb, src, time.Minute, "seatmap", nil)

	mock.ExpectGet("seatmap:1:gen").SetErr(errors.New("connection refused"))

	got, err := cache.SeatMap(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, src.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatMapCacheSourceError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	src := &countingSource{err: ErrTheaterNotFound}
	cache := NewSeatMapCache(rdb, src, time.Minute, "seatmap", nil)

	mock.ExpectGet("seatmap:9:gen").SetVal("2")
	mock.ExpectGet("seatmap:9:2").RedisNil()

	_, err := cache.SeatMap(context.Background(), 9)
	assert.ErrorIs(t, err, ErrTheaterNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatMapCacheInvalidateOutlivesRequest(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewSeatMapCache(rdb, &countingSource{}, time.Minute, "seatmap", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cache.Invalidate(ctx, 4)

	gen, err := mr.Get("seatmap:4:gen")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
}

// invalidatingSource returns the seats it was built with and, on the first
// load, runs during before returning as if a booking committed mid-load.
type invalidatingSource struct {
	loads  [][]model.SeatRecord
	calls  int
	during func()
}

func (s *invalidatingSource) SeatMap(context.Context, uint64) ([]model.SeatRecord, error) {
	out := s.loads[s.calls]
	s.calls++
	if s.calls == 1 && s.during != nil {
		s.during()
	}
	return out, nil
}

func TestSeatMapCacheStaleLoadIsNotServedAfterInvalidate(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	stale := model.GenerateSeatGrid(1, 1)
	fresh := []model.SeatRecord{{Row: "A", Number: 1, Status: model.SeatBooked}}
	src := &invalidatingSource{loads: [][]model.SeatRecord{stale, fresh}}
	cache := NewSeatMapCache(rdb, src, time.Minute, "seatmap", nil)
	src.during = func() { cache.Invalidate(context.Background(), 5) }
	stalePayload, err := json.Marshal(stale)
	require.NoError(t, err)
	freshPayload, err := json.Marshal(fresh)
	require.NoError(t, err)

	mock.ExpectGet("seatmap:5:gen").RedisNil()
	mock.ExpectGet("seatmap:5:0").RedisNil()
	mock.ExpectIncr("seatmap:5:gen").SetVal(1)
	mock.ExpectSet("seatmap:5:0", stalePayload, time.Minute).SetVal("OK")
	mock.ExpectGet("seatmap:5:gen").SetVal("1")
	mock.ExpectGet("seatmap:5:1").RedisNil()
	mock.ExpectSet("seatmap:5:1", freshPayload, time.Minute).SetVal("OK")

	first, err := cache.SeatMap(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, stale, first)

	second, err := cache.SeatMap(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, fresh, second)
	assert.Equal(t, 2, src.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// cancellingSource cancels the caller's context mid-load and reports the
// state of the context it was handed.
type cancellingSource struct {
	cancel context.CancelFunc
	seats  []model.SeatRecord
}

func (s *cancellingSource) SeatMap(ctx context.Context, _ uint64) ([]model.SeatRecord, error) {
	s.cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.seats, nil
}

func TestSeatMapCacheSharedLoadIgnoresCallerCancel(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &cancellingSource{cancel: cancel, seats: model.GenerateSeatGrid(1, 3)}
	cache := NewSeatMapCache(rdb, src, time.Minute, "seatmap", nil)
	payload, err := json.Marshal(src.seats)
	require.NoError(t, err)

	mock.ExpectGet("seatmap:6:gen").RedisNil()
	mock.ExpectGet("seatmap:6:0").RedisNil()
	mock.ExpectSet("seatmap:6:0", payload, time.Minute).SetVal("OK")

	got, err := cache.SeatMap(ctx, 6)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatMapCacheWithoutRedis(t *testing.T) {
	src := &countingSource{seats: model.GenerateSeatGrid(2, 2)}
	cache := NewSeatMapCache(nil, src, 0, "", nil)

	got, err := cache.SeatMap(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	cache.Invalidate(context.Background(), 1)
	assert.Equal(t, 1, src.calls)
}
