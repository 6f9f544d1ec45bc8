// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package picoboot implements the subset of the PICOBOOT USB protocol needed
// to read the flash of the RP2040/RP2350 in the BOOTSEL mode.
package picoboot

import (
	"encoding/binary"
	"errors"
	"io"
	"strconv"
	"strings"

	usb "github.com/google/gousb"
)

const magic uint32 = 0x431fd10b

const (
	cmdExclusiveAccess uint8 = 0x01
	cmdRead            uint8 = 0x84
	cmdExitXIP         uint8 = 0x06
	cmdEnterXIP        uint8 = 0x07
)

const (
	vendorRPi     usb.ID = 0x2e8a
	productRP2040 usb.ID = 0x0003
	productRP2350 usb.ID = 0x000f
)

// Chip identifiers read from the boot ROM at BootROMMagicAddr.
const (
	BootROMMagicAddr = 0x0000_0010

	ChipRP2040 uint32 = 0x01754d
	ChipRP2350 uint32 = 0x02754d
)

type Conn struct {
	usbCtx   *usb.Context
	dev      *usb.Device
	cfg      *usb.Config
	intf     *usb.Interface
	oe       *usb.OutEndpoint
	ie       *usb.InEndpoint
	cmdBuf   [32]byte
	token    uint32
	readSpec [2]uint32
}

func parseBusAddr(busAddr string) (int, int) {
	s := strings.Split(busAddr, ":")
	if len(s) != 2 {
		return -1, -1
	}
	bus, err := strconv.ParseUint(s[0], 10, 8)
	if err != nil {
		return -1, -1
	}
	dev, err := strconv.ParseUint(s[1], 10, 8)
	if err != nil {
		return -1, -1
	}
	return int(bus), int(dev)
}

type Error struct {
	Op  string
	Err error
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return "picoboot: " + e.Op + ": " + e.Err.Error()
}

func wrapErr(op string, err *error) {
	if *err != nil {
		*err = &Error{op, *err}
	}
}

// Connect connects to the USB device in PICOBOOT mode. You can connect to the
// concrete device on the USB bus by providing BUS:DEV string where both BUS
// and DEV are decimal unsigned integers. If busAddr is empty connect will try
// to find a PICOBOOT device on the bus (it will return an error if there are
// more than one such devices).
func Connect(busAddr string) (conn *Conn, err error) {
	defer wrapErr("Connect", &err)
	bus, addr := parseBusAddr(busAddr)
	if busAddr != "" && bus < 0 {
		return nil, errors.New("bad USB device address: " + busAddr)
	}
	conn = &Conn{usbCtx: usb.NewContext()}
	defer func() {
		if err != nil {
			conn.Close()
			conn = nil
		}
	}()
	var cn, in, an int
	devs, err := conn.usbCtx.OpenDevices(func(desc *usb.DeviceDesc) bool {
		if bus >= 0 && (desc.Bus != bus || desc.Address != addr) {
			return false
		}
		if desc.Vendor != vendorRPi {
			return false
		}
		if desc.Product != productRP2040 && desc.Product != productRP2350 {
			return false
		}
		for _, cfg := range desc.Configs {
			for _, id := range cfg.Interfaces {
				for _, is := range id.AltSettings {
					if is.Class == 0xff && is.SubClass == 0 && is.Protocol == 0 {
						cn, in, an = cfg.Number, id.Number, is.Alternate
						return true
					}
				}
			}
		}
		return false
	})
	if err != nil {
		for _, d := range devs {
			d.Close()
		}
		return
	}
	if len(devs) == 0 {
		return conn, errors.New("no USB devices in BOOTSEL mode were found")
	}
	if len(devs) != 1 {
		for _, d := range devs {
			d.Close()
		}
		return conn, errors.New("found more than one USB device in BOOTSEL mode")
	}
	conn.dev = devs[0]
	conn.dev.SetAutoDetach(true)

	// Determine PICOBOOT bulk endpoints (TX/RX).
	if conn.cfg, err = conn.dev.Config(cn); err != nil {
		return
	}
	if conn.intf, err = conn.cfg.Interface(in, an); err != nil {
		return
	}
	var rxn, txn int
	if n := len(conn.intf.Setting.Endpoints); n != 2 {
		return conn, errors.New("want exactly two USB bulk endpoints")
	}
	for _, ed := range conn.intf.Setting.Endpoints {
		if ed.Direction == usb.EndpointDirectionIn {
			rxn = ed.Number
		} else {
			txn = ed.Number
		}
	}
	if rxn == 0 {
		return conn, errors.New("no USB IN endpoint in the USB interface")
	}
	if txn == 0 {
		return conn, errors.New("no USB OUT endpoint in the USB interface")
	}
	if conn.ie, err = conn.intf.InEndpoint(rxn); err != nil {
		return
	}
	if conn.oe, err = conn.intf.OutEndpoint(txn); err != nil {
		return
	}
	binary.LittleEndian.AppendUint32(conn.cmdBuf[:0], magic)
	return
}

// Close releases the USB interface, device and context.
func (c *Conn) Close() (err error) {
	if c.intf != nil {
		c.intf.Close()
	}
	if c.cfg != nil {
		c.cfg.Close()
	}
	if c.dev != nil {
		c.dev.Close()
	}
	err = c.usbCtx.Close()
	wrapErr("Close", &err)
	return
}

func (c *Conn) writeCmd(cmdId uint8, transferLength int, args any) error {
	cmdSize := 0
	if args != nil {
		cmdSize = binary.Size(args)
		if cmdSize < 0 || cmdSize > 16 {
			return errors.New("wrong args size")
		}
	}
	le := binary.LittleEndian
	buf := c.cmdBuf[:4] // persistent magic number
	buf = le.AppendUint32(buf, c.token)
	buf = append(buf, cmdId, uint8(cmdSize), 0, 0)
	buf = le.AppendUint32(buf, uint32(transferLength))
	if args != nil {
		var err error
		if buf, err = binary.Append(buf, le, args); err != nil {
			return err
		}
	}
	n := len(buf)
	buf = buf[:cap(buf)]
	clear(buf[n:]) // padd with zeros
	_, err := c.oe.Write(buf)
	c.token++
	return err
}

// status reads the zero-length acknowledgment of a command without data.
func (c *Conn) status() error {
	_, err := c.ie.Read(nil)
	return err
}

func (c *Conn) ExclusiveAccess(ea bool) (err error) {
	defer wrapErr("ExclusiveAccess", &err)
	var arg uint8
	if ea {
		arg = 1
	}
	if err = c.writeCmd(cmdExclusiveAccess, 0, &arg); err != nil {
		return
	}
	return c.status()
}

// ExitXIP disables the flash XIP mode. It must be called before reading the
// flash.
func (c *Conn) ExitXIP() (err error) {
	defer wrapErr("ExitXIP", &err)
	if err = c.writeCmd(cmdExitXIP, 0, nil); err != nil {
		return
	}
	return c.status()
}

// EnterXIP restores the flash XIP mode.
func (c *Conn) EnterXIP() (err error) {
	defer wrapErr("EnterXIP", &err)
	if err = c.writeCmd(cmdEnterXIP, 0, nil); err != nil {
		return
	}
	return c.status()
}

func (c *Conn) SetReadAddr(addr uint32) {
	c.readSpec[0] = addr
}

// Read performs n-byte PICOBOOT read transaction (if err == nil then n is
// always equal to len(p)) starting just after the last read address (see also
// SetReadAddr).
func (c *Conn) Read(p []byte) (n int, err error) {
	defer wrapErr("Read", &err)
	c.readSpec[1] = uint32(len(p))
	err = c.writeCmd(cmdRead, len(p), &c.readSpec)
	if err != nil {
		return
	}
	n, err = io.ReadFull(c.ie, p)
	if err != nil {
		return
	}
	c.readSpec[0] += uint32(n)
	_, err = c.oe.Write(nil)
	return
}

// ReadAt reads len(p) bytes starting from addr.
func (c *Conn) ReadAt(p []byte, addr uint32) (int, error) {
	c.SetReadAddr(addr)
	return c.Read(p)
}

// Chip returns the chip identifier stored in the boot ROM.
func (c *Conn) Chip() (uint32, error) {
	var buf [4]byte
	if _, err := c.ReadAt(buf[:], BootROMMagicAddr); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]) & 0xffffff, nil
}

// ChipName returns the name of the chip identified by Chip.
func ChipName(chip uint32) string {
	switch chip {
	case ChipRP2040:
		return "RP2040"
	case ChipRP2350:
		return "RP2350"
	}
	return "unknown"
}
