// Package memory 根据配置选择项目记忆后端（进程内、Redis 或 MySQL），
// 并以 plugin.Memory 的形式交给插件上下文使用。
package memory
