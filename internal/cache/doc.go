// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a small generic LRU cache for expensive derived
// resources such as aperture masks and starburst textures.
//
//	c := cache.New[Key, *Texture](4)
//	tex, err := c.GetOrCompute(key, func() (*Texture, error) { ... })
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
