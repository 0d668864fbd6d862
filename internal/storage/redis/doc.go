// Package redis 提供基于 Redis 的项目记忆存储：值以 JSON 编码保存在带前缀的键下。
package redis
