// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"
	"github.com/ppcsuite/kerneld/chaincfg"
	"github.com/ppcsuite/kerneld/database"
	"github.com/ppcsuite/kerneld/internal/version"
)

const (
	defaultDbType     = database.TypeLevelDB
	defaultLogLevel   = "info"
	defaultLogDirname = "logs"
	defaultLogFile    = "ckpttool.log"
)

var (
	kernelHomeDir  = btcutil.AppDataDir("kerneld", false)
	defaultDataDir = filepath.Join(kernelHomeDir, "data")
	defaultLogDir  = filepath.Join(kernelHomeDir, defaultLogDirname)
	knownDbTypes   = database.SupportedDBs()
)

// config defines the configuration options for ckpttool.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	DataDir     string `short:"b" long:"datadir" description:"Location of the kerneld data directory"`
	DbType      string `long:"dbtype" description:"Database backend holding the sync checkpoints"`
	LogDir      string `long:"logdir" description:"Directory to log output"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`
	TestNet     bool   `long:"testnet" description:"Use the test network"`
	RegTest     bool   `long:"regtest" description:"Use the regression test network"`
	PrivKey     string `long:"privkey" description:"Checkpoint master private key, hex or WIF encoded"`

	params *chaincfg.Params
}

// validDbType returns whether or not dbType is a supported database type.
func validDbType(dbType string) bool {
	for _, knownType := range knownDbTypes {
		if dbType == knownType {
			return true
		}
	}

	return false
}

// usageMessage is appended to the help output.
const usageMessage = `
Commands:
  sign <blockhash>     Sign a sync checkpoint for the block (requires --privkey)
  verify <hexmsg>      Verify a serialized checkpoint message
  show                 Show the stored sync checkpoint and its history
  pubkey               Check --privkey against the network master public key`

// loadConfig initializes and parses the config using command line options.
func loadConfig(args []string) (*config, []string, error) {
	// Default config.
	cfg := config{
		DataDir:    defaultDataDir,
		DbType:     defaultDbType,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
		params:     &chaincfg.MainNetParams,
	}

	// Parse command line options.
	parser := flags.NewParser(&cfg, flags.Default)
	parser.Usage = "[OPTIONS] <command> [args]\n" + usageMessage
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	// Show the version and exit if the version flag was specified.
	if cfg.ShowVersion {
		fmt.Println(version.Full("ckpttool"))
		os.Exit(0)
	}

	// Multiple networks can't be selected simultaneously.
	funcName := "loadConfig"
	numNets := 0
	if cfg.TestNet {
		numNets++
		cfg.params = &chaincfg.TestNetParams
	}
	if cfg.RegTest {
		numNets++
		cfg.params = &chaincfg.RegressionNetParams
	}
	if numNets > 1 {
		str := "%s: the testnet and regtest params can't be used " +
			"together -- choose one of the two"
		err := fmt.Errorf(str, funcName)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Validate database type.
	if !validDbType(cfg.DbType) {
		str := "%s: the specified database type [%v] is invalid -- " +
			"supported types %v"
		err := fmt.Errorf(str, funcName, cfg.DbType, knownDbTypes)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Namespace the data and log directories per network.
	cfg.DataDir = filepath.Join(cfg.DataDir, cfg.params.Name)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.params.Name)

	if len(remainingArgs) == 0 {
		err := fmt.Errorf("%s: no command specified", funcName)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	return &cfg, remainingArgs, nil
}
