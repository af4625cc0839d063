package cmd

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/deevus/instructor-tui/internal"
	"github.com/deevus/instructor-tui/lms"
)

// connectServer builds the services for the selected profile, tunnelling
// through SSH when configured. The returned closer, when non-nil, shuts the
// tunnel down.
func connectServer(p *profile) (*internal.Services, io.Closer, error) {
	server := p.server
	params := lms.ClientParams{
		BaseURL:            server.BaseURL,
		APIToken:           server.APIToken,
		SessionID:          server.SessionID,
		CSRFToken:          server.CSRFToken,
		InsecureSkipVerify: server.InsecureSkipVerify,
		Timeout:            server.Timeout.Duration,
		RequestsPerSecond:  server.RequestsPerSecond,
		Logger:             p.logger,
	}

	var closer io.Closer
	if server.SSH != nil {
		sshHost := server.SSH.Host
		if sshHost == "" {
			u, err := url.Parse(server.BaseURL)
			if err != nil {
				return nil, nil, fmt.Errorf("parsing base_url: %w", err)
			}
			sshHost = u.Hostname()
		}

		if server.SSH.HostKeyFingerprint == "" {
			return nil, nil, missingFingerprint(p.name, sshHost, server.SSH.Port)
		}

		privateKey, err := os.ReadFile(server.SSH.PrivateKeyPath)
		if err != nil {
			return nil, nil, fmt.Errorf("reading SSH private key %s: %w", server.SSH.PrivateKeyPath, err)
		}

		tunnel, err := lms.NewSSHTunnel(lms.SSHTunnelParams{
			Host:               sshHost,
			Port:               server.SSH.Port,
			User:               server.SSH.Username,
			PrivateKey:         privateKey,
			HostKeyFingerprint: server.SSH.HostKeyFingerprint,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating SSH tunnel: %w", err)
		}
		params.DialContext = tunnel.DialContext
		closer = tunnel
		p.logger.Info("using SSH tunnel", zap.String("ssh_host", sshHost), zap.Int("ssh_port", server.SSH.Port))
	}

	client := lms.NewClient(params)
	svc := internal.NewServices(client, server.EndpointResolver(), p.logger, p.cfg.DownloadDir)
	return svc, closer, nil
}

// missingFingerprint probes the SSH host so the error can tell the user
// exactly what to add to their config.
func missingFingerprint(name, host string, port int) error {
	fingerprint, err := lms.ScanHostKey(host, port)
	if err != nil {
		return fmt.Errorf("host_key_fingerprint is required for SSH\n"+
			"Could not auto-detect: %v\n"+
			"Get it with: ssh-keyscan -p %d %s 2>/dev/null | ssh-keygen -lf -", err, port, host)
	}
	return fmt.Errorf("host_key_fingerprint is required for SSH\n"+
		"Detected fingerprint for %s:\n\n"+
		"  host_key_fingerprint = %q\n\n"+
		"Add this to [servers.%s.ssh] in your config", host, fingerprint, name)
}
