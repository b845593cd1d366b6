//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
)

// raytraceShaderSource is the ghost ray-trace compute shader.
//
//go:embed shaders/raytrace.wgsl
var raytraceShaderSource string

const raytraceEntryPoint = "main"

// raytraceSPIRV compiles the ray-trace shader once per process.
var raytraceSPIRV = sync.OnceValues(func() ([]uint32, error) {
	return compileSPIRV(raytraceShaderSource)
})

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	if len(spirvBytes) == 0 || len(spirvBytes)%4 != 0 {
		return nil, errors.New("compile shader: SPIR-V output is not word aligned")
	}

	// SPIR-V is a stream of little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}
