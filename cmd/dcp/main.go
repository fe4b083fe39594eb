package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ipfs/go-cid"

	"dcp-ai.org/dcp/bundle"
	"dcp-ai.org/dcp/digest"
	"dcp-ai.org/dcp/keys"
	"dcp-ai.org/dcp/policy"
	"dcp-ai.org/dcp/schema"
	"dcp-ai.org/dcp/storage"
	"dcp-ai.org/dcp/storage/pack"
	"dcp-ai.org/dcp/storage/registry"

	_ "dcp-ai.org/dcp/storage/localfs"
	_ "dcp-ai.org/dcp/storage/regsvc"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "keygen":
		return cmdKeygen(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "intent-hash":
		return cmdIntentHash(args[1:], out, errOut)
	case "bundle-hash":
		return cmdBundleHash(args[1:], out, errOut)
	case "merkle-root":
		return cmdMerkleRoot(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "validate":
		return cmdValidate(args[1:], out, errOut)
	case "validate-bundle":
		return cmdValidateBundle(args[1:], out, errOut)
	case "policy":
		return cmdPolicy(args[1:], out, errOut)
	case "store":
		return cmdStore(args[1:], out, errOut)
	case "pack":
		return cmdPack(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "dcp: digital citizenship protocol CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  dcp keygen")
	fmt.Fprintln(w, "  dcp key init --name <human> [--seed-hex <64hex>] [--force] [--key-dir <dir>]")
	fmt.Fprintln(w, "  dcp key derive --from <human> --agent <agent> [--force] [--key-dir <dir>]")
	fmt.Fprintln(w, "  dcp key list [--key-dir <dir>]")
	fmt.Fprintln(w, "  dcp key export --name <human> [--agent <agent>] [--key-dir <dir>]")
	fmt.Fprintln(w, "  dcp intent-hash <intent.json>")
	fmt.Fprintln(w, "  dcp bundle-hash <bundle.json>")
	fmt.Fprintln(w, "  dcp merkle-root <signed-bundle.json>")
	fmt.Fprintln(w, "  dcp sign (--seed-hex <64hex> | --signer <human> [--agent <agent>] | --key-file <path>) [--signer-type human|organization] [--signer-id <id>] <bundle.json>")
	fmt.Fprintln(w, "  dcp verify (--public-key <b64> | --signer <human> [--agent <agent>]) <signed-bundle.json>")
	fmt.Fprintln(w, "  dcp validate --schema <name> <file.json>")
	fmt.Fprintln(w, "  dcp validate-bundle <bundle.json>")
	fmt.Fprintln(w, "  dcp policy eval --rules <rules.json> <intent.json>")
	fmt.Fprintln(w, "  dcp store put --backend <name> [backend flags] <envelope.json>")
	fmt.Fprintln(w, "  dcp store get --backend <name> [backend flags] <cid>")
	fmt.Fprintln(w, "  dcp store has --backend <name> [backend flags] <cid>")
	fmt.Fprintln(w, "  dcp pack export --backend <name> [backend flags] --out <file.tar> <cid> [<cid> ...]")
	fmt.Fprintln(w, "  dcp pack import --backend <name> [backend flags] <file.tar>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - --seed-hex must be 32 bytes (64 hex chars) ed25519 seed")
	fmt.Fprintln(w, "  - keys are stored under ~/.dcp/keys/<human> (0600 seed files)")
	fmt.Fprintln(w, "  - verify prints a JSON report; exit 0 means verified, 1 means not")
	fmt.Fprintln(w, "  - store put canonicalizes the envelope before computing its CID")
}

func cmdKeygen(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	kp, err := keys.GenerateKeypair()
	if err != nil {
		fmt.Fprintf(errOut, "keygen: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]string{
		"public_key_b64": kp.PublicKeyB64,
		"secret_key_b64": kp.SecretKeyB64,
	})
	return 0
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "dcp key: minimal local key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  dcp key init --name <human> [--seed-hex <64hex>] [--force] [--key-dir <dir>]")
	fmt.Fprintln(w, "  dcp key derive --from <human> --agent <agent> [--force] [--key-dir <dir>]")
	fmt.Fprintln(w, "  dcp key list [--key-dir <dir>]")
	fmt.Fprintln(w, "  dcp key export --name <human> [--agent <agent>] [--key-dir <dir>]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var seedHex string
	var keyDir string
	var force bool

	fs.StringVar(&name, "name", "", "Human identifier (directory under the key store)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible demos)")
	fs.StringVar(&keyDir, "key-dir", "", "Key store directory (default ~/.dcp/keys)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	kp, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", kp.PublicKeyB64)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var agent string
	var keyDir string
	var force bool

	fs.StringVar(&from, "from", "", "Human identifier holding the root key")
	fs.StringVar(&agent, "agent", "", "Agent name (e.g. mail-agent)")
	fs.StringVar(&keyDir, "key-dir", "", "Key store directory (default ~/.dcp/keys)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if agent == "" {
		fmt.Fprintln(errOut, "missing --agent")
		return 2
	}
	ks, err := keys.CreateKeyStore(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	kp, agentPath, err := ks.DeriveAgentKey(from, agent, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive agent key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Derived agent key: %s\n", kp.PublicKeyB64)
	fmt.Fprintf(out, "Stored at: %s\n", agentPath)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var keyDir string
	fs.StringVar(&keyDir, "key-dir", "", "Key store directory (default ~/.dcp/keys)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.CreateKeyStore(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintln(out, e.Identifier)
		for _, a := range e.Agents {
			fmt.Fprintf(out, "  agents/%s\n", a)
		}
	}
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var agent string
	var keyDir string

	fs.StringVar(&name, "name", "", "Human identifier")
	fs.StringVar(&agent, "agent", "", "Optional agent name")
	fs.StringVar(&keyDir, "key-dir", "", "Key store directory (default ~/.dcp/keys)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	ks, err := keys.CreateKeyStore(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	pub, err := ks.ExportPublicKey(name, agent)
	if err != nil {
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, pub)
	return 0
}

func cmdIntentHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("intent-hash", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: dcp intent-hash <intent.json>")
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read intent: %v\n", err)
		return 1
	}
	h, err := digest.FingerprintRaw(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid intent: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, h)
	return 0
}

func cmdBundleHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle-hash", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: dcp bundle-hash <bundle.json>")
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read bundle: %v\n", err)
		return 1
	}
	h, err := digest.FingerprintRaw(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid bundle: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, digest.Tag(h))
	return 0
}

func cmdMerkleRoot(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("merkle-root", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: dcp merkle-root <signed-bundle.json>")
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read envelope: %v\n", err)
		return 1
	}

	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		fmt.Fprintf(errOut, "invalid envelope: %v\n", err)
		return 1
	}
	bundleDoc, _ := doc["bundle"].(map[string]any)
	if bundleDoc == nil {
		// Also accept a bare bundle document.
		bundleDoc = doc
	}
	entries, _ := bundleDoc["audit_entries"].([]any)
	leaves := make([]string, 0, len(entries))
	for i, e := range entries {
		h, err := digest.Fingerprint(e)
		if err != nil {
			fmt.Fprintf(errOut, "audit_entries[%d]: %v\n", i, err)
			return 1
		}
		leaves = append(leaves, h)
	}
	root, err := digest.MerkleRoot(leaves)
	if err != nil {
		fmt.Fprintf(errOut, "merkle root: %v\n", err)
		return 1
	}
	if root == "" {
		fmt.Fprintln(out, "null")
		return 0
	}
	fmt.Fprintln(out, digest.Tag(root))
	return 0
}

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var seedHex string
	var signerName string
	var agentName string
	var keyFile string
	var keyDir string
	var signerType string
	var signerID string

	fs.StringVar(&seedHex, "seed-hex", "", "ed25519 seed as 64 hex chars")
	fs.StringVar(&signerName, "signer", "", "Use a stored key by human identifier (from 'dcp key init')")
	fs.StringVar(&agentName, "agent", "", "When using --signer, use a derived agent key")
	fs.StringVar(&keyFile, "key-file", "", "Path to a seed file (hex) created by 'dcp key init/derive'")
	fs.StringVar(&keyDir, "key-dir", "", "Key store directory (default ~/.dcp/keys)")
	fs.StringVar(&signerType, "signer-type", "", "Signer type: human or organization (default human)")
	fs.StringVar(&signerID, "signer-id", "", "Signer id (default the bundle's human_id)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: dcp sign [flags] <bundle.json>")
		return 2
	}
	if seedHex == "" && signerName == "" && keyFile == "" {
		fmt.Fprintln(errOut, "missing signer: use --seed-hex, --signer, or --key-file")
		return 2
	}
	if seedHex != "" && (signerName != "" || keyFile != "") {
		fmt.Fprintln(errOut, "conflicting signer flags: --seed-hex cannot be combined with --signer or --key-file")
		return 2
	}
	if signerName != "" && keyFile != "" {
		fmt.Fprintln(errOut, "conflicting signer flags: --signer cannot be combined with --key-file")
		return 2
	}

	ks, err := keys.CreateKeyStore(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	secret, err := ks.LoadSecret(seedHex, signerName, agentName, keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "invalid signer: %v\n", err)
		return 2
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read bundle: %v\n", err)
		return 1
	}
	var cb bundle.CitizenshipBundle
	if err := json.Unmarshal(raw, &cb); err != nil {
		fmt.Fprintf(errOut, "invalid bundle: %v\n", err)
		return 1
	}

	sb, err := bundle.Sign(&cb, secret, bundle.SignOptions{
		SignerType: signerType,
		SignerID:   signerID,
	})
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sb); err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var publicKey string
	var signerName string
	var agentName string
	var keyDir string

	fs.StringVar(&publicKey, "public-key", "", "Base64 ed25519 public key")
	fs.StringVar(&signerName, "signer", "", "Use a stored key's public half by human identifier")
	fs.StringVar(&agentName, "agent", "", "When using --signer, use a derived agent key")
	fs.StringVar(&keyDir, "key-dir", "", "Key store directory (default ~/.dcp/keys)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: dcp verify [flags] <signed-bundle.json>")
		return 2
	}
	if publicKey == "" && signerName == "" {
		fmt.Fprintln(errOut, "missing key: use --public-key or --signer")
		return 2
	}
	if publicKey == "" {
		ks, err := keys.CreateKeyStore(keyDir)
		if err != nil {
			fmt.Fprintf(errOut, "keys: %v\n", err)
			return 1
		}
		publicKey, err = ks.ExportPublicKey(signerName, agentName)
		if err != nil {
			fmt.Fprintf(errOut, "export: %v\n", err)
			return 1
		}
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read envelope: %v\n", err)
		return 1
	}

	report := bundle.VerifyJSON(raw, publicKey)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
	if !report.Verified {
		return 1
	}
	return 0
}

func cmdValidate(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var schemaName string
	fs.StringVar(&schemaName, "schema", "", "Schema name (e.g. intent, audit_entry, signed_bundle)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if schemaName == "" {
		fmt.Fprintf(errOut, "missing --schema (one of: %v)\n", schema.Names())
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: dcp validate --schema <name> <file.json>")
		return 2
	}
	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return 1
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		fmt.Fprintf(errOut, "invalid JSON: %v\n", err)
		return 1
	}
	res := schema.Validate(schemaName, doc)
	return printValidation(res, out)
}

func cmdValidateBundle(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("validate-bundle", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: dcp validate-bundle <bundle.json>")
		return 2
	}
	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return 1
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		fmt.Fprintf(errOut, "invalid JSON: %v\n", err)
		return 1
	}
	// Accept a signed envelope too; validate the bundle it carries.
	if inner, ok := doc["bundle"].(map[string]any); ok {
		if _, hasSig := doc["signature"]; hasSig {
			doc = inner
		}
	}
	res := schema.ValidateBundle(doc)
	return printValidation(res, out)
}

func printValidation(res schema.Result, out io.Writer) int {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
	if !res.Valid {
		return 1
	}
	return 0
}

func cmdPolicy(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 || args[0] != "eval" {
		fmt.Fprintln(errOut, "usage: dcp policy eval --rules <rules.json> <intent.json>")
		return 2
	}
	fs := flag.NewFlagSet("policy eval", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var rulesPath string
	fs.StringVar(&rulesPath, "rules", "", "JSON rule set")

	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if rulesPath == "" {
		fmt.Fprintln(errOut, "missing --rules")
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: dcp policy eval --rules <rules.json> <intent.json>")
		return 2
	}

	rulesRaw, err := os.ReadFile(rulesPath)
	if err != nil {
		fmt.Fprintf(errOut, "read rules: %v\n", err)
		return 1
	}
	rules, err := policy.ParseRules(rulesRaw)
	if err != nil {
		fmt.Fprintf(errOut, "%v\n", err)
		return 1
	}
	gate, err := policy.NewGate(rules)
	if err != nil {
		fmt.Fprintf(errOut, "%v\n", err)
		return 1
	}

	intentRaw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read intent: %v\n", err)
		return 1
	}
	var intent bundle.Intent
	if err := json.Unmarshal(intentRaw, &intent); err != nil {
		fmt.Fprintf(errOut, "invalid intent: %v\n", err)
		return 1
	}

	decision, err := gate.Evaluate(&intent)
	if err != nil {
		fmt.Fprintf(errOut, "evaluate: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(decision)
	if decision.Decision == policy.Block {
		return 1
	}
	return 0
}

func cmdStore(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: dcp store <put|get|has> --backend <name> [backend flags] ...")
		return 2
	}
	sub := args[0]
	switch sub {
	case "put", "get", "has":
	default:
		fmt.Fprintf(errOut, "unknown store subcommand: %s\n", sub)
		return 2
	}

	fs := flag.NewFlagSet("store "+sub, flag.ContinueOnError)
	fs.SetOutput(errOut)
	var backend string
	fs.StringVar(&backend, "backend", "localfs", "Envelope store backend name")
	registry.RegisterFlags(fs, registry.UsageCLI)

	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(errOut, "usage: dcp store %s --backend <name> [backend flags] <arg>\n", sub)
		return 2
	}

	st, closeFn, err := registry.Open(backend, registry.UsageCLI)
	if err != nil {
		fmt.Fprintf(errOut, "open backend: %v\n", err)
		return 2
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	switch sub {
	case "put":
		raw, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "read envelope: %v\n", err)
			return 1
		}
		id, err := storage.PutEnvelope(st, raw)
		if err != nil {
			fmt.Fprintf(errOut, "put: %v\n", err)
			return 1
		}
		fmt.Fprintln(out, id.String())
		return 0
	case "get":
		id, err := storage.DecodeCID(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "invalid cid: %v\n", err)
			return 2
		}
		b, err := st.Get(id)
		if err != nil {
			fmt.Fprintf(errOut, "get: %v\n", err)
			return 1
		}
		_, _ = out.Write(b)
		return 0
	default: // has
		id, err := storage.DecodeCID(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "invalid cid: %v\n", err)
			return 2
		}
		if st.Has(id) {
			fmt.Fprintln(out, "true")
			return 0
		}
		fmt.Fprintln(out, "false")
		return 1
	}
}

func cmdPack(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: dcp pack <export|import> --backend <name> [backend flags] ...")
		return 2
	}
	sub := args[0]
	switch sub {
	case "export", "import":
	default:
		fmt.Fprintf(errOut, "unknown pack subcommand: %s\n", sub)
		return 2
	}

	fs := flag.NewFlagSet("pack "+sub, flag.ContinueOnError)
	fs.SetOutput(errOut)
	var backend string
	var outPath string
	fs.StringVar(&backend, "backend", "localfs", "Envelope store backend name")
	fs.StringVar(&outPath, "out", "", "Output archive path (for export)")
	registry.RegisterFlags(fs, registry.UsageCLI)

	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	st, closeFn, err := registry.Open(backend, registry.UsageCLI)
	if err != nil {
		fmt.Fprintf(errOut, "open backend: %v\n", err)
		return 2
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	switch sub {
	case "export":
		if outPath == "" {
			fmt.Fprintln(errOut, "missing --out")
			return 2
		}
		if fs.NArg() == 0 {
			fmt.Fprintln(errOut, "usage: dcp pack export --out <file.tar> <cid> [<cid> ...]")
			return 2
		}
		ids := make([]cid.Cid, 0, fs.NArg())
		for _, s := range fs.Args() {
			id, err := storage.DecodeCID(s)
			if err != nil {
				fmt.Fprintf(errOut, "invalid cid %q: %v\n", s, err)
				return 2
			}
			ids = append(ids, id)
		}
		f, err := os.Create(outPath)
		if err != nil {
			fmt.Fprintf(errOut, "create archive: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pack.Export(f, st, ids, pack.ExportOptions{IncludeIndex: true}); err != nil {
			fmt.Fprintf(errOut, "export: %v\n", err)
			return 1
		}
		if err := f.Close(); err != nil {
			fmt.Fprintf(errOut, "close archive: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "exported %d envelope(s) to %s\n", len(ids), outPath)
		return 0
	default: // import
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: dcp pack import --backend <name> [backend flags] <file.tar>")
			return 2
		}
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "open archive: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pack.Import(f, st); err != nil {
			fmt.Fprintf(errOut, "import: %v\n", err)
			return 1
		}
		fmt.Fprintln(out, "imported")
		return 0
	}
}
