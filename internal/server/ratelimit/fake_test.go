package ratelimit

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// memRedis keeps sorted sets in memory for the commands the limiter uses.
// Any other call panics on the nil embedded interface.
type memRedis struct {
	redis.Cmdable
	sets map[string][]redis.Z
}

func newMemRedis() *memRedis {
	return &memRedis{sets: map[string][]redis.Z{}}
}

func (m *memRedis) Pipeline() redis.Pipeliner {
	return &memPipe{r: m}
}

func (m *memRedis) ZRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd {
	set := m.sets[key]
	if len(set) == 0 {
		return redis.NewZSliceCmdResult(nil, nil)
	}
	end := int(stop) + 1
	if end > len(set) {
		end = len(set)
	}
	return redis.NewZSliceCmdResult(append([]redis.Z(nil), set[start:end]...), nil)
}

type memPipe struct {
	redis.Pipeliner
	r   *memRedis
	ops []func()
}

func (p *memPipe) ZRemRangeByScore(ctx context.Context, key, min, max string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	p.ops = append(p.ops, func() {
		hi, _ := strconv.ParseFloat(max, 64)
		var kept []redis.Z
		for _, z := range p.r.sets[key] {
			if z.Score > hi {
				kept = append(kept, z)
			}
		}
		cmd.SetVal(int64(len(p.r.sets[key]) - len(kept)))
		p.r.sets[key] = kept
	})
	return cmd
}

func (p *memPipe) ZCard(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	p.ops = append(p.ops, func() { cmd.SetVal(int64(len(p.r.sets[key]))) })
	return cmd
}

func (p *memPipe) ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	p.ops = append(p.ops, func() {
		set := append(p.r.sets[key], members...)
		sort.Slice(set, func(i, j int) bool { return set[i].Score < set[j].Score })
		p.r.sets[key] = set
		cmd.SetVal(int64(len(members)))
	})
	return cmd
}

func (p *memPipe) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	p.ops = append(p.ops, func() { cmd.SetVal(true) })
	return cmd
}

func (p *memPipe) Exec(ctx context.Context) ([]redis.Cmder, error) {
	for _, op := range p.ops {
		op()
	}
	p.ops = nil
	return nil, nil
}
