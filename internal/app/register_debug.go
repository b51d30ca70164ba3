// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/inertial_attitude/internal/imu"
	"github.com/relabs-tech/inertial_attitude/internal/sensors"
)

// RegisterDevice is the register-level access the debug tool needs.
// *sensors.MPU6050 implements it.
type RegisterDevice interface {
	imu.RawSource
	Init() error
	Scale() imu.Scale
	ReadRegister(reg byte) (byte, error)
	WriteRegister(reg, val byte) error
	ReadAllRegisters() (map[byte]byte, error)
}

// RegisterResponse is every message the debug websocket sends.
type RegisterResponse struct {
	Type        string                 `json:"type"` // "register_data", "register_map", "status", "error", "export_config"
	Address     string                 `json:"addr,omitempty"`
	Value       string                 `json:"value,omitempty"`
	Registers   map[string]string      `json:"registers,omitempty"`
	Timestamp   string                 `json:"timestamp,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Status      string                 `json:"status,omitempty"`
	RegisterMap []sensors.RegisterInfo `json:"register_map,omitempty"`
	Config      *RegisterConfigFile    `json:"config,omitempty"`
	Filename    string                 `json:"filename,omitempty"`
}

// RegisterConfigFile is the exported register snapshot.
type RegisterConfigFile struct {
	Version   int               `json:"version"`
	Device    string            `json:"device"`
	Timestamp string            `json:"timestamp"`
	Registers map[string]string `json:"registers"` // hex address -> hex value
}

type registerCmd struct {
	Action  string `json:"action"` // "get_map", "read", "read_all", "write", "init", "export_config"
	Address string `json:"addr,omitempty"`
	Value   string `json:"value,omitempty"`
}

// RegisterDebug serves register inspection for one device. Bus access is
// serialised across connections.
type RegisterDebug struct {
	mu  sync.Mutex
	dev RegisterDevice
	now func() time.Time
}

// NewRegisterDebug wraps dev.
func NewRegisterDebug(dev RegisterDevice) *RegisterDebug {
	return &RegisterDebug{dev: dev, now: time.Now}
}

// Handler returns the mux: /ws for register commands, /api/imu for a live
// sample.
func (d *RegisterDebug) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", d.handleWS)
	mux.HandleFunc("/api/imu", d.handleIMUData)
	return mux
}

func (d *RegisterDebug) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("register_debug: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(RegisterResponse{Type: "register_map", RegisterMap: sensors.RegisterMap()}); err != nil {
		log.Printf("register_debug: error sending register map: %v", err)
		return
	}

	for {
		var cmd registerCmd
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("register_debug: websocket error: %v", err)
			}
			return
		}
		if err := conn.WriteJSON(d.handle(cmd)); err != nil {
			return
		}
	}
}

// handle executes one command and builds its reply.
func (d *RegisterDebug) handle(cmd registerCmd) RegisterResponse {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch cmd.Action {
	case "get_map":
		return RegisterResponse{Type: "register_map", RegisterMap: sensors.RegisterMap()}

	case "read":
		addr, err := parseHexByte(cmd.Address)
		if err != nil {
			return errorResponse("invalid address format: %s", cmd.Address)
		}
		v, err := d.dev.ReadRegister(addr)
		if err != nil {
			return errorResponse("read error: %v", err)
		}
		return RegisterResponse{Type: "register_data", Address: hexByte(addr), Value: hexByte(v), Timestamp: d.stamp()}

	case "read_all":
		regs, err := d.dev.ReadAllRegisters()
		if err != nil {
			return errorResponse("read all error: %v", err)
		}
		return RegisterResponse{Type: "register_data", Registers: hexMap(regs), Timestamp: d.stamp()}

	case "write":
		addr, err := parseHexByte(cmd.Address)
		if err != nil {
			return errorResponse("invalid address format: %s", cmd.Address)
		}
		val, err := parseHexByte(cmd.Value)
		if err != nil {
			return errorResponse("invalid value format: %s", cmd.Value)
		}
		if info, ok := sensors.LookupRegister(addr); !ok || !info.Writable() {
			return errorResponse("register 0x%02X is not writable", addr)
		}
		if err := d.dev.WriteRegister(addr, val); err != nil {
			return errorResponse("write error: %v", err)
		}
		return RegisterResponse{Type: "register_data", Address: hexByte(addr), Value: hexByte(val), Timestamp: d.stamp(), Message: "write successful"}

	case "init":
		if err := d.dev.Init(); err != nil {
			return errorResponse("reinit error: %v", err)
		}
		return RegisterResponse{Type: "status", Status: "initialized", Message: "IMU reinitialized successfully"}

	case "export_config":
		regs, err := d.dev.ReadAllRegisters()
		if err != nil {
			return errorResponse("export error: %v", err)
		}
		now := d.now()
		return RegisterResponse{
			Type:    "export_config",
			Message: "config exported",
			Config: &RegisterConfigFile{
				Version:   1,
				Device:    "mpu6050",
				Timestamp: now.Format(time.RFC3339),
				Registers: hexMap(regs),
			},
			Filename: fmt.Sprintf("mpu6050_%s_registers.json", now.Format("20060102_150405")),
		}

	default:
		return errorResponse("unknown action: %s", cmd.Action)
	}
}

// handleIMUData serves one live sample in counts and physical units.
func (d *RegisterDebug) handleIMUData(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	raw, err := d.dev.ReadRaw()
	scale := d.dev.Scale()
	d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(struct {
		Raw      imu.RawSample      `json:"raw"`
		Physical imu.PhysicalSample `json:"physical"`
	}{raw, scale.ToPhysical(raw)})
}

// StaticPage serves the file at path for every request. When the file is
// missing it logs once and answers 404 with a hint naming the path.
func StaticPage(component, path string) http.Handler {
	if !staticAvailable(component, path) {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, fmt.Sprintf("%s not found; the HTML front end is not installed", path), http.StatusNotFound)
		})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, path)
	})
}

func (d *RegisterDebug) stamp() string { return d.now().Format(time.RFC3339) }

func errorResponse(format string, args ...any) RegisterResponse {
	return RegisterResponse{Type: "error", Message: fmt.Sprintf(format, args...)}
}

func parseHexByte(s string) (byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 8)
	return byte(v), err
}

func hexByte(b byte) string { return fmt.Sprintf("0x%02X", b) }

func hexMap(regs map[byte]byte) map[string]string {
	out := make(map[string]string, len(regs))
	for a, v := range regs {
		out[hexByte(a)] = hexByte(v)
	}
	return out
}
