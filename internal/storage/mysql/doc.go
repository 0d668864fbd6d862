// Package mysql 提供基于 MySQL 的项目记忆仓库，负责连接池、内嵌迁移与键值读写。
package mysql
