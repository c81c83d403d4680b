// This is free and unencumbered software released into the public domain.

// Command pgpkit is a small OpenPGP CLI: generate keys, sign, verify,
// clearsign, and dearmor. Flag layout and the fatal()/readPassphrase()
// shape are grounded directly on passphrase2pgp.go's (the teacher's
// top-level CLI) optparse usage, extended with verify/dearmor
// subcommands that exercise nullprogram.com/x/openpgp's facade rather
// than hand-rolling EdDSA packets inline the way the original did.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"nullprogram.com/x/openpgp"
	"nullprogram.com/x/openpgp/armor"
	"nullprogram.com/x/openpgp/packet"
	"nullprogram.com/x/optparse"
)

const (
	kdfTime   = 8
	kdfMemory = 1024 * 1024 // 1 GB

	cmdKey = iota
	cmdSign
	cmdVerify
	cmdClearsign
	cmdDearmor
	cmdEncrypt
	cmdDecrypt
)

var log = logrus.New()

func fatal(format string, args ...interface{}) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "pgpkit: "+format+"\n", args...)
	os.Stderr.Write(buf.Bytes())
	os.Exit(1)
}

// kdf derives a 64-byte seed from a passphrase, scaling Argon2id
// difficulty by scale*scale, mirroring passphrase2pgp.go's kdf().
func kdf(passphrase, uid []byte, scale int) []byte {
	t := uint32(kdfTime * scale)
	memory := uint32(kdfMemory * scale)
	return argon2.IDKey(passphrase, uid, t, memory, 1, 64)
}

type config struct {
	cmd     int
	args    []string
	armor   bool
	input   string
	keyFile string
	created int64
	uid     string
	verbose bool
}

func usage(w io.Writer) {
	bw := bufio.NewWriter(w)
	f := func(s ...interface{}) { fmt.Fprintln(bw, s...) }
	f("Usage:")
	f("  pgpkit -K [-a] [-u id] [-n] [-i pwfile]")
	f("  pgpkit -S [-a] -l key [files...]")
	f("  pgpkit -V -l key sig.asc data")
	f("  pgpkit -T -l key <doc.txt >doc-signed.txt")
	f("  pgpkit -D <armored-file")
	f("Commands:")
	f("  -K, --keygen      output a new key")
	f("  -S, --sign        output a detached signature")
	f("  -V, --verify      verify a detached signature")
	f("  -T, --clearsign   output a cleartext signature")
	f("  -D, --dearmor     strip ASCII armor")
	f("  -E, --encrypt     output a passphrase-encrypted message")
	f("  -X, --decrypt     decrypt a passphrase-encrypted message")
	f("Options:")
	f("  -a, --armor       encode output in ASCII armor")
	f("  -l, --load FILE   load signing key from file")
	f("  -i, --input FILE  read passphrase from file")
	f("  -n, --now         use current time as creation date")
	f("  -u, --uid USERID  user ID for the key")
	f("  -v, --verbose     print additional information")
	f("  -h, --help        print this help message")
	bw.Flush()
}

func parse() *config {
	conf := &config{cmd: cmdKey}
	options := []optparse.Option{
		{"keygen", 'K', optparse.KindNone},
		{"sign", 'S', optparse.KindNone},
		{"verify", 'V', optparse.KindNone},
		{"clearsign", 'T', optparse.KindNone},
		{"dearmor", 'D', optparse.KindNone},
		{"encrypt", 'E', optparse.KindNone},
		{"decrypt", 'X', optparse.KindNone},

		{"armor", 'a', optparse.KindNone},
		{"help", 'h', optparse.KindNone},
		{"input", 'i', optparse.KindRequired},
		{"load", 'l', optparse.KindRequired},
		{"now", 'n', optparse.KindNone},
		{"uid", 'u', optparse.KindRequired},
		{"verbose", 'v', optparse.KindNone},
	}

	results, rest, err := optparse.Parse(options, os.Args)
	if err != nil {
		usage(os.Stderr)
		fatal("%s", err)
	}
	for _, r := range results {
		switch r.Long {
		case "keygen":
			conf.cmd = cmdKey
		case "sign":
			conf.cmd = cmdSign
		case "verify":
			conf.cmd = cmdVerify
		case "clearsign":
			conf.cmd = cmdClearsign
		case "dearmor":
			conf.cmd = cmdDearmor
		case "encrypt":
			conf.cmd = cmdEncrypt
		case "decrypt":
			conf.cmd = cmdDecrypt
		case "armor":
			conf.armor = true
		case "help":
			usage(os.Stdout)
			os.Exit(0)
		case "input":
			conf.input = r.Optarg
		case "load":
			conf.keyFile = r.Optarg
		case "now":
			conf.created = time.Now().Unix()
		case "uid":
			conf.uid = r.Optarg
		case "verbose":
			conf.verbose = true
		}
	}
	conf.args = rest
	return conf
}

func readPassphrase(conf *config) ([]byte, error) {
	if conf.input == "" {
		return []byte{}, nil
	}
	f, err := os.Open(conf.input)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	if !s.Scan() {
		return []byte{}, nil
	}
	return s.Bytes(), nil
}

func loadSignKey(conf *config) (*openpgp.SignKey, error) {
	if conf.keyFile == "" {
		passphrase, err := readPassphrase(conf)
		if err != nil {
			return nil, err
		}
		seed := kdf(passphrase, []byte(conf.uid), 1)
		key := &openpgp.SignKey{}
		key.Seed(seed[:32])
		key.SetCreated(conf.created)
		return key, nil
	}
	data, err := os.ReadFile(conf.keyFile)
	if err != nil {
		return nil, err
	}
	raw, _, err := packet.ParsePacket(data)
	if err != nil {
		return nil, err
	}
	key := &openpgp.SignKey{}
	passphrase, err := readPassphrase(conf)
	if err != nil {
		return nil, err
	}
	if err := key.Load(raw, passphrase); err != nil {
		return nil, err
	}
	return key, nil
}

func doKeygen(conf *config) {
	key, err := loadSignKey(conf)
	if err != nil {
		fatal("%s", err)
	}
	out := key.Packet()
	writeOutput(conf, out, armor.TypePrivateKey)
}

func doSign(conf *config) {
	key, err := loadSignKey(conf)
	if err != nil {
		fatal("%s", err)
	}
	var src io.Reader = os.Stdin
	if len(conf.args) > 0 {
		f, err := os.Open(conf.args[0])
		if err != nil {
			fatal("%s", err)
		}
		defer f.Close()
		src = f
	}
	sig, err := openpgp.Sign(key, src)
	if err != nil {
		fatal("%s", err)
	}
	os.Stdout.Write(sig)
}

func doClearsign(conf *config) {
	key, err := loadSignKey(conf)
	if err != nil {
		fatal("%s", err)
	}
	r, err := openpgp.Clearsign(key, os.Stdin)
	if err != nil {
		fatal("%s", err)
	}
	if _, err := io.Copy(os.Stdout, r); err != nil {
		fatal("%s", err)
	}
}

func doVerify(conf *config) {
	if len(conf.args) < 2 {
		fatal("verify requires a signature file and a data file")
	}
	pubData, err := os.ReadFile(conf.keyFile)
	if err != nil {
		fatal("%s", err)
	}
	pub, err := openpgp.ParsePublicKey(pubData)
	if err != nil {
		fatal("%s", err)
	}
	sigData, err := os.ReadFile(conf.args[0])
	if err != nil {
		fatal("%s", err)
	}
	sig, err := openpgp.ParseSignature(sigData)
	if err != nil {
		fatal("%s", err)
	}
	f, err := os.Open(conf.args[1])
	if err != nil {
		fatal("%s", err)
	}
	defer f.Close()
	if err := openpgp.Verify(pub, sig, f); err != nil {
		fatal("verification failed: %s", err)
	}
	if conf.verbose {
		log.Info("good signature")
	}
}

func doDearmor(conf *config) {
	var data []byte
	var err error
	if len(conf.args) > 0 {
		data, err = os.ReadFile(conf.args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fatal("%s", err)
	}
	block, err := openpgp.Dearmor(data)
	if err != nil {
		fatal("%s", err)
	}
	os.Stdout.Write(block.Bytes)
}

func doEncrypt(conf *config) {
	passphrase, err := readPassphrase(conf)
	if err != nil {
		fatal("%s", err)
	}
	var src io.Reader = os.Stdin
	if len(conf.args) > 0 {
		f, err := os.Open(conf.args[0])
		if err != nil {
			fatal("%s", err)
		}
		defer f.Close()
		src = f
	}
	out, err := openpgp.Encrypt(passphrase, src)
	if err != nil {
		fatal("%s", err)
	}
	os.Stdout.Write(out)
}

func doDecrypt(conf *config) {
	passphrase, err := readPassphrase(conf)
	if err != nil {
		fatal("%s", err)
	}
	var data []byte
	if len(conf.args) > 0 {
		data, err = os.ReadFile(conf.args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fatal("%s", err)
	}
	plain, err := openpgp.Decrypt(passphrase, data)
	if err != nil {
		fatal("%s", err)
	}
	os.Stdout.Write(plain)
}

func writeOutput(conf *config, body []byte, typ armor.Type) {
	if !conf.armor {
		os.Stdout.Write(body)
		return
	}
	if err := armor.Encode(os.Stdout, typ, nil, body); err != nil {
		fatal("%s", err)
	}
}

func main() {
	conf := parse()
	if conf.verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	switch conf.cmd {
	case cmdKey:
		doKeygen(conf)
	case cmdSign:
		doSign(conf)
	case cmdVerify:
		doVerify(conf)
	case cmdClearsign:
		doClearsign(conf)
	case cmdDearmor:
		doDearmor(conf)
	case cmdEncrypt:
		doEncrypt(conf)
	case cmdDecrypt:
		doDecrypt(conf)
	}
}
