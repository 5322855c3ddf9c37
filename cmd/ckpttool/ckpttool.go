// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// ckpttool signs, verifies and inspects synchronized checkpoints.
package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ppcsuite/kerneld/blockchain"
	"github.com/ppcsuite/kerneld/database"
	ilog "github.com/ppcsuite/kerneld/internal/log"
	ppcwire "github.com/ppcsuite/kerneld/wire"
)

const ckptDbNamePrefix = "ckpt"

var log = ilog.CkptLog

// errUsage is returned for malformed command lines.
var errUsage = errors.New("invalid command line")

// loadCheckpointDB opens the checkpoint database and returns a handle to it.
func loadCheckpointDB(cfg *config) (*database.DB, error) {
	// The database name is based on the database type.
	dbName := ckptDbNamePrefix + "_" + cfg.DbType
	dbPath := filepath.Join(cfg.DataDir, dbName)
	log.Infof("Loading checkpoint database from '%s'", dbPath)
	return database.Open(cfg.DbType, dbPath, false)
}

// masterPubKey returns the checkpoint master public key of the network.
func masterPubKey(cfg *config) (*btcec.PublicKey, error) {
	if len(cfg.params.CheckpointPubKey) == 0 {
		return nil, fmt.Errorf("network %s has no checkpoint master key",
			cfg.params.Name)
	}
	return btcec.ParsePubKey(cfg.params.CheckpointPubKey)
}

// encodeCheckpoint returns the hex encoding of the message as sent on the
// wire.
func encodeCheckpoint(msg *ppcwire.MsgCheckpoint) (string, error) {
	var buf bytes.Buffer
	if err := msg.BtcEncode(&buf, 0, 0); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// signCmd signs a checkpoint for the block hash in args[0].
func signCmd(w io.Writer, cfg *config, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if cfg.PrivKey == "" {
		return errors.New("sign requires --privkey")
	}
	privKey, err := blockchain.ParseCheckpointPrivKey(cfg.PrivKey)
	if err != nil {
		return err
	}
	hash, err := chainhash.NewHashFromStr(args[0])
	if err != nil {
		return err
	}

	msg := blockchain.SignSyncCheckpoint(privKey, hash)
	if _, err := blockchain.VerifySyncCheckpoint(privKey.PubKey(), msg); err != nil {
		return err
	}
	encoded, err := encodeCheckpoint(msg)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, encoded)
	return nil
}

// verifyCmd verifies the hex encoded checkpoint message in args[0] against
// the network master public key.
func verifyCmd(w io.Writer, cfg *config, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	serialized, err := hex.DecodeString(strings.TrimSpace(args[0]))
	if err != nil {
		return err
	}
	var msg ppcwire.MsgCheckpoint
	if err := msg.BtcDecode(bytes.NewReader(serialized), 0, 0); err != nil {
		return err
	}
	pubKey, err := masterPubKey(cfg)
	if err != nil {
		return err
	}
	unsigned, err := blockchain.VerifySyncCheckpoint(pubKey, &msg)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "valid checkpoint (version %d) for block %v\n",
		unsigned.Version, unsigned.HashCheckpoint)
	return nil
}

// showCmd prints the stored checkpoint and the checkpoint history.
func showCmd(w io.Writer, cfg *config, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	db, err := loadCheckpointDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	current, err := blockchain.FetchSyncCheckpoint(db)
	if err != nil {
		return err
	}
	if current == nil {
		fmt.Fprintln(w, "no sync checkpoint stored")
		return nil
	}
	fmt.Fprintf(w, "current: %v (height %d, signed %v)\n", current.Hash,
		current.Height, current.Msg != nil)

	history, err := blockchain.FetchCheckpointHistory(db)
	if err != nil {
		return err
	}
	for _, rec := range history {
		fmt.Fprintf(w, "%8d %v\n", rec.Height, rec.Hash)
	}
	return nil
}

// pubkeyCmd prints the public key of --privkey and whether it is the
// network master public key.
func pubkeyCmd(w io.Writer, cfg *config, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	if cfg.PrivKey == "" {
		return errors.New("pubkey requires --privkey")
	}
	privKey, err := blockchain.ParseCheckpointPrivKey(cfg.PrivKey)
	if err != nil {
		return err
	}
	serialized := privKey.PubKey().SerializeCompressed()
	fmt.Fprintln(w, hex.EncodeToString(serialized))

	pubKey, err := masterPubKey(cfg)
	if err != nil {
		return err
	}
	if !pubKey.IsEqual(privKey.PubKey()) {
		return fmt.Errorf("key does not match the %s checkpoint master "+
			"key %x", cfg.params.Name, pubKey.SerializeCompressed())
	}
	fmt.Fprintf(w, "matches the %s checkpoint master key\n", cfg.params.Name)
	return nil
}

// commands maps the command names to their handlers.
var commands = map[string]func(io.Writer, *config, []string) error{
	"sign":   signCmd,
	"verify": verifyCmd,
	"show":   showCmd,
	"pubkey": pubkeyCmd,
}

// runCommand runs the command named by args[0] with the remaining arguments.
func runCommand(w io.Writer, cfg *config, args []string) error {
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	if err := cmd(w, cfg, args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		return err
	}
	return nil
}

func realMain() error {
	cfg, args, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	if err := ilog.InitLogRotator(filepath.Join(cfg.LogDir, defaultLogFile)); err != nil {
		return err
	}
	defer ilog.LogRotator.Close()
	if err := ilog.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return err
	}

	return runCommand(os.Stdout, cfg, args)
}

func main() {
	if err := realMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
