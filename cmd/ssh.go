// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"
	"net"

	"github.com/gliderlabs/ssh"
	gossh "golang.org/x/crypto/ssh"

	"github.com/usbarmory/efi-sed/shell"
)

// AuthorizedKey represents the SSH public key, in authorized_keys format,
// allowed to access the network console. It is set at link time, the SSH
// server is not started when empty.
var AuthorizedKey string

// SSHPort is the network console listening port.
var SSHPort = 22

func sshHandler(s ssh.Session) {
	iface := &shell.Interface{
		Banner:     Banner,
		ReadWriter: s,
	}

	if line := s.RawCommand(); len(line) > 0 {
		if err := iface.Exec(line, s); err != nil && err != io.EOF {
			s.Exit(1)
			return
		}

		s.Exit(0)
		return
	}

	if _, _, isPty := s.Pty(); isPty {
		iface.VT100 = true
	}

	log.Printf("network console session (%s)", s.RemoteAddr())

	iface.Start()
	s.Exit(0)
}

// StartSSHServer serves the shell on the argument listener, over SSH, to
// sessions authenticated with the argument authorized key. A fresh ed25519
// host key is generated on each invocation.
func StartSSHServer(l net.Listener, authorizedKey string) (srv *ssh.Server, err error) {
	if len(authorizedKey) == 0 {
		return nil, errors.New("missing authorized key")
	}

	key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(authorizedKey))

	if err != nil {
		return nil, fmt.Errorf("invalid authorized key, %v", err)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)

	if err != nil {
		return
	}

	signer, err := gossh.NewSignerFromKey(priv)

	if err != nil {
		return
	}

	srv = &ssh.Server{
		Handler: sshHandler,
		PublicKeyHandler: func(_ ssh.Context, k ssh.PublicKey) bool {
			return ssh.KeysEqual(k, key)
		},
	}

	srv.AddHostKey(signer)

	log.Printf("starting ssh server (%s) on %s", gossh.FingerprintSHA256(signer.PublicKey()), l.Addr())

	go func() {
		if err := srv.Serve(l); err != nil && err != ssh.ErrServerClosed {
			log.Printf("ssh server error, %v", err)
		}
	}()

	return
}
