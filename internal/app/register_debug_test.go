// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_attitude/internal/imu"
)

type fakeRegisters struct {
	regs    map[byte]byte
	inits   int
	readErr error
}

func (f *fakeRegisters) ReadRaw() (imu.RawSample, error) {
	if f.readErr != nil {
		return imu.RawSample{}, f.readErr
	}
	return imu.RawSample{Source: "fake", Az: 16384}, nil
}
func (f *fakeRegisters) Init() error { f.inits++; return nil }
func (f *fakeRegisters) Scale() imu.Scale { return imu.DefaultScale }
func (f *fakeRegisters) ReadRegister(reg byte) (byte, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.regs[reg], nil
}
func (f *fakeRegisters) WriteRegister(reg, val byte) error { f.regs[reg] = val; return nil }
func (f *fakeRegisters) ReadAllRegisters() (map[byte]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.regs, nil
}

func newFakeDebug() (*RegisterDebug, *fakeRegisters) {
	dev := &fakeRegisters{regs: map[byte]byte{0x75: 0x68, 0x6B: 0x00, 0x1B: 0x08}}
	d := NewRegisterDebug(dev)
	d.now = func() time.Time { return time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC) }
	return d, dev
}

func TestRegisterDebug_Commands(t *testing.T) {
	d, dev := newFakeDebug()

	r := d.handle(registerCmd{Action: "read", Address: "0x75"})
	assert.Equal(t, "register_data", r.Type)
	assert.Equal(t, "0x68", r.Value)
	assert.Equal(t, "2026-05-04T03:02:01Z", r.Timestamp)

	r = d.handle(registerCmd{Action: "write", Address: "0x1B", Value: "0x18"})
	assert.Equal(t, "write successful", r.Message)
	assert.Equal(t, byte(0x18), dev.regs[0x1B])

	r = d.handle(registerCmd{Action: "write", Address: "0x75", Value: "0x00"})
	assert.Equal(t, "error", r.Type)
	assert.Equal(t, byte(0x68), dev.regs[0x75])

	r = d.handle(registerCmd{Action: "write", Address: "0x01", Value: "0x00"})
	assert.Equal(t, "error", r.Type)

	r = d.handle(registerCmd{Action: "read", Address: "zz"})
	assert.Equal(t, "error", r.Type)

	r = d.handle(registerCmd{Action: "read_all"})
	assert.Equal(t, map[string]string{"0x75": "0x68", "0x6B": "0x00", "0x1B": "0x18"}, r.Registers)

	r = d.handle(registerCmd{Action: "init"})
	assert.Equal(t, "initialized", r.Status)
	assert.Equal(t, 1, dev.inits)

	r = d.handle(registerCmd{Action: "export_config"})
	require.NotNil(t, r.Config)
	assert.Equal(t, 1, r.Config.Version)
	assert.Equal(t, "0x68", r.Config.Registers["0x75"])
	assert.Equal(t, "mpu6050_20260504_030201_registers.json", r.Filename)

	r = d.handle(registerCmd{Action: "get_map"})
	assert.NotEmpty(t, r.RegisterMap)

	r = d.handle(registerCmd{Action: "selftest"})
	assert.Equal(t, "error", r.Type)
	assert.Contains(t, r.Message, "selftest")

	dev.readErr = errors.New("nack")
	r = d.handle(registerCmd{Action: "read_all"})
	assert.Equal(t, "error", r.Type)
}

func TestRegisterDebug_Websocket(t *testing.T) {
	d, _ := newFakeDebug()
	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first RegisterResponse
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "register_map", first.Type)

	require.NoError(t, conn.WriteJSON(registerCmd{Action: "read", Address: "0x6B"}))
	var resp RegisterResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "0x00", resp.Value)
}

func TestRegisterDebug_IMUData(t *testing.T) {
	d, dev := newFakeDebug()
	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/imu")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Raw      imu.RawSample      `json:"raw"`
		Physical imu.PhysicalSample `json:"physical"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int16(16384), body.Raw.Az)
	assert.InDelta(t, imu.StandardGravity, body.Physical.Accel.Z, 1e-9)

	d.mu.Lock()
	dev.readErr = errors.New("nack")
	d.mu.Unlock()
	resp2, err := http.Get(srv.URL + "/api/imu")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp2.StatusCode)
}

func TestParseHexByte(t *testing.T) {
	for in, want := range map[string]byte{"0x1B": 0x1B, "1b": 0x1B, "0XFF": 0xFF, " 0x00 ": 0} {
		got, err := parseHexByte(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseHexByte("0x100")
	assert.Error(t, err)
}

func TestStaticPage(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "register_debug.html")
	require.NoError(t, os.WriteFile(page, []byte("<title>registers</title>"), 0o644))

	rec := httptest.NewRecorder()
	StaticPage("register_debug", page).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "registers")

	missing := filepath.Join(dir, "nope.html")
	rec = httptest.NewRecorder()
	StaticPage("register_debug", missing).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), missing)
}
