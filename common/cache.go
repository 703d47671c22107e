// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var ctx = context.Background()
var rdb *redis.Client
var cache *lru.Cache

var ErrCacheMiss = errors.New("key not found in cache")

// SetupCache initializes the in-process LRU cache and, when cache.redis is
// set, a redis client used as a second tier shared between instances.
// Serialized projection runs are the primary payload; entries are lz4
// compressed before they are stored.
func SetupCache() {
	var err error
	if viper.GetBool("cache.redis") {
		opt, err := redis.ParseURL(viper.GetString("cache.redis_url"))
		if err != nil {
			log.Error().Err(err).Msg("could not parse redis URL")
			os.Exit(1)
		}

		rdb = redis.NewClient(opt)
	}

	cache, err = lru.New(viper.GetInt("cache.local_size"))
	if err != nil {
		log.Error().Err(err).Msg("could not create LRU cache")
		os.Exit(1)
	}
}

// CacheSet compresses bytes and stores them under key in the local LRU and,
// when configured, redis with the cache.ttl expiration.
func CacheSet(key string, bytes []byte) error {
	b2, err := Compress(bytes)
	if err != nil {
		return err
	}
	cache.Add(key, b2)

	if viper.GetBool("cache.redis") {
		expires := time.Duration(viper.GetInt("cache.ttl")) * time.Second
		return rdb.Set(ctx, key, b2, expires).Err()
	}
	return nil
}

// CacheGet retrieves and decompresses the value stored under key. The local
// LRU is consulted first and redis second; ErrCacheMiss is returned when the
// key is in neither tier.
func CacheGet(key string) ([]byte, error) {
	v2, ok := cache.Get(key)
	if ok {
		return Decompress(v2.([]byte))
	}

	if viper.GetBool("cache.redis") {
		expires := time.Duration(viper.GetInt("cache.ttl")) * time.Second
		val, err := rdb.GetEx(ctx, key, expires).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return []byte{}, ErrCacheMiss
			}
			return []byte{}, err
		}
		return Decompress(val)
	}

	return []byte{}, ErrCacheMiss
}
