package lms

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHTunnelParams holds the details needed to reach the LMS through an SSH
// jump host.
type SSHTunnelParams struct {
	Host               string
	Port               int
	User               string
	PrivateKey         []byte
	HostKeyFingerprint string
	Timeout            time.Duration
}

// SSHTunnel dials TCP connections through a lazily established SSH client.
type SSHTunnel struct {
	params SSHTunnelParams
	signer ssh.Signer

	mu     sync.Mutex
	client *ssh.Client
}

// NewSSHTunnel parses the private key and returns a tunnel. No connection is
// made until the first DialContext.
func NewSSHTunnel(p SSHTunnelParams) (*SSHTunnel, error) {
	if p.HostKeyFingerprint == "" {
		return nil, fmt.Errorf("host_key_fingerprint is required for SSH")
	}
	signer, err := ssh.ParsePrivateKey(p.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("parsing SSH private key: %w", err)
	}
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
	return &SSHTunnel{params: p, signer: signer}, nil
}

// DialContext opens addr on the far side of the tunnel. It matches the
// signature of http.Transport.DialContext.
func (t *SSHTunnel) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	client, err := t.connect()
	if err != nil {
		return nil, err
	}
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := client.Dial(network, addr)
		ch <- result{conn, err}
	}()
	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			// Drop the client so the next dial reconnects.
			t.reset(client)
			return nil, fmt.Errorf("dialing %s through SSH: %w", addr, r.err)
		}
		return r.conn, nil
	}
}

// Close shuts down the underlying SSH connection, if any.
func (t *SSHTunnel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

func (t *SSHTunnel) connect() (*ssh.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		return t.client, nil
	}
	want := t.params.HostKeyFingerprint
	cfg := &ssh.ClientConfig{
		User: t.params.User,
		Auth: []ssh.AuthMethod{ssh.PublicKeys(t.signer)},
		HostKeyCallback: func(_ string, _ net.Addr, key ssh.PublicKey) error {
			if got := ssh.FingerprintSHA256(key); got != want {
				return fmt.Errorf("host key mismatch: got %s, want %s", got, want)
			}
			return nil
		},
		Timeout: t.params.Timeout,
	}
	addr := net.JoinHostPort(t.params.Host, strconv.Itoa(t.params.Port))
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to SSH host %s: %w", addr, err)
	}
	t.client = client
	return client, nil
}

func (t *SSHTunnel) reset(stale *ssh.Client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == stale {
		t.client.Close()
		t.client = nil
	}
}

// ScanHostKey connects to an SSH server and returns the host key fingerprint.
func ScanHostKey(host string, port int) (string, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	var fingerprint string
	cfg := &ssh.ClientConfig{
		User: "probe",
		HostKeyCallback: func(_ string, _ net.Addr, key ssh.PublicKey) error {
			fingerprint = ssh.FingerprintSHA256(key)
			return nil
		},
		Timeout: 5 * time.Second,
	}
	conn, err := ssh.Dial("tcp", addr, cfg)
	if conn != nil {
		conn.Close()
	}
	if fingerprint != "" {
		return fingerprint, nil
	}
	return "", fmt.Errorf("could not connect to %s: %w", addr, err)
}
