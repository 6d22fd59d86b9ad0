package redis

import backend "github.com/redis/go-redis/v9"

// All scripts take KEYS[1] = entries list, KEYS[2] = pointer.
// An empty list is seeded with the root entry passed in ARGV[1]; the last
// ARGV is the TTL in milliseconds (0 for none).

const seed = `
if redis.call('LLEN', KEYS[1]) == 0 then
	redis.call('RPUSH', KEYS[1], ARGV[1])
	redis.call('SET', KEYS[2], 0)
end
local idx = tonumber(redis.call('GET', KEYS[2]) or '0')
`

const expire = `
local ttl = tonumber(ARGV[#ARGV])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[1], ttl)
	redis.call('PEXPIRE', KEYS[2], ttl)
end
`

// ARGV[2] = entry, ARGV[3] = max entries. Returns the new pointer or -1 on quota.
var pushScript = backend.NewScript(seed + `
local max = tonumber(ARGV[3])
if max > 0 and idx + 1 >= max then
	return -1
end
redis.call('LTRIM', KEYS[1], 0, idx)
redis.call('RPUSH', KEYS[1], ARGV[2])
idx = idx + 1
redis.call('SET', KEYS[2], idx)
` + expire + `
return idx
`)

// ARGV[2] = entry. Returns the pointer.
var replaceScript = backend.NewScript(seed + `
redis.call('LSET', KEYS[1], idx, ARGV[2])
` + expire + `
return idx
`)

// ARGV[2] = delta. Returns the new pointer or -1 when the move leaves the list.
var goScript = backend.NewScript(seed + `
local delta = tonumber(ARGV[2])
local nextIdx = idx + delta
if delta == 0 or nextIdx < 0 or nextIdx >= redis.call('LLEN', KEYS[1]) then
	return -1
end
redis.call('SET', KEYS[2], nextIdx)
` + expire + `
return nextIdx
`)

// Returns the entry at the pointer, or nil for an empty history.
var currentScript = backend.NewScript(`
local idx = tonumber(redis.call('GET', KEYS[2]) or '0')
return redis.call('LINDEX', KEYS[1], idx)
`)
