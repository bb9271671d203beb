package store

import (
	"context"

	"github.com/redis/go-redis/v9"
)

var atomicCreate = redis.NewScript(`
local key = KEYS[1]
local value = ARGV[1]
local ms = ARGV[2]

if (redis.call('SET', key, value, 'PX', ms, 'NX') == false) then
    return 0
else
    return 1
end
`)

// SET with PX and NX arrived in 2.6.12; older servers get the two step form,
// which only sets the expiry on a key it created.
var atomicCreateLegacy = redis.NewScript(`
local key = KEYS[1]
local value = ARGV[1]
local ms = ARGV[2]

local created = redis.call('SETNX', key, value)
if (created == 1) then
  redis.call('PEXPIRE', key, ms)
end
return created
`)

var atomicDelete = redis.NewScript(`
local key = KEYS[1]
local value = ARGV[1]

if (redis.call('GET', key) == value) then
  redis.call('DEL', key)
  return 1
else
  return 0
end
`)

func registerScripts(ctx context.Context, r redis.Scripter, create *redis.Script) error {
	if err := create.Load(ctx, r).Err(); err != nil {
		return err
	}
	if err := atomicDelete.Load(ctx, r).Err(); err != nil {
		return err
	}
	return nil
}

func runStatusScript(ctx context.Context, script *redis.Script, r redis.Scripter, key string, args ...interface{}) (bool, error) {
	status := false
	v, err := script.Run(ctx, r, []string{key}, args...).Result()
	if err != nil {
		return false, err
	}

	if i, ok := v.(int64); ok {
		status = i == 1
	}
	return status, nil
}
