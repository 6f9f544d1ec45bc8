// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logger wraps zap to provide a global sugared logger writing to the
// standard error, a logger carried in context.Context and leveled helpers
// that take the context.
package logger
