// Command flashgatectl parses DataFlash flight logs, evaluates them
// against an acceptance rule pack, and produces manifests and reports
// over the results.
package main

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"flashgate/internal/common"
	"flashgate/internal/crypto"
	"flashgate/internal/dflog"
	"flashgate/internal/gate"
	"flashgate/internal/manifest"
	"flashgate/internal/report"
	"flashgate/internal/sink/ndjson"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	switch cmd {
	case "parse":
		parseCmd(os.Args[2:])
	case "gate":
		gateCmd(os.Args[2:])
	case "report":
		reportCmd(os.Args[2:])
	case "manifest":
		manifestCmd(os.Args[2:])
	case "verify-signature":
		verifySignatureCmd(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Printf(`flashgatectl %s (built %s) <command> [options]

Commands:
  parse             --in <file.bin> [--out <log.ndjson>] [--status <status.json>] [--metrics] [--progress]
  gate              --in <file.bin> --rules <rulepack.json> --out <diagnostics.jsonl> --acceptance <acceptance.json>
  report            --acceptance <acceptance.json> --pdf <report.pdf> [--status <status.json>] [--manifest <manifest.json>] [--lang en|tr]
  manifest          --inputs <comma-separated> --out <manifest.json> [--sign --key <key.pem> --cert <cert.pem> --jws-out <file>] [--qr <hash.png>]
  verify-signature  --manifest <manifest.json> --jws <signature.jws> --cert <cert.pem>
`, version, buildDate)
}

type ctlCallbacks struct {
	metrics *common.Metrics
}

func (c *ctlCallbacks) OnProgress(position, total int64) {
	if c.metrics != nil {
		c.metrics.SetBytes(position)
		c.metrics.SetTotalBytes(total)
	}
}

func (c *ctlCallbacks) OnError(message string) {
	common.Logf("flashgatectl: parse error: %s", message)
}

// parseCmd streams a DataFlash log to NDJSON and reports the parser's
// status, the way a caller would want to inspect a log before gating it.
func parseCmd(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	in := fs.String("in", "", "input DataFlash .bin/.log file")
	out := fs.String("out", "", "NDJSON output path (defaults to stdout)")
	statusOut := fs.String("status", "", "optional status JSON output path")
	metricsFlag := fs.Bool("metrics", false, "print parse throughput metrics")
	progressFlag := fs.Bool("progress", false, "display parse progress updates")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}

	f, err := os.Open(*in)
	if err != nil {
		fmt.Println("open input:", err)
		os.Exit(1)
	}
	defer f.Close()

	src, err := dflog.NewFileByteSource(f)
	if err != nil {
		fmt.Println("stat input:", err)
		os.Exit(1)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		outFile, err := os.Create(*out)
		if err != nil {
			fmt.Println("create output:", err)
			os.Exit(1)
		}
		defer outFile.Close()
		w = outFile
	}
	sink := ndjson.NewSink(ndjson.NewWriter(w))

	var metrics *common.Metrics
	if *metricsFlag || *progressFlag {
		metrics = common.NewMetrics()
		metrics.SetTotalBytes(src.Size())
	}

	var stopProgress func()
	if metrics != nil {
		metrics.Start()
		if *progressFlag {
			stopProgress = common.StartProgressPrinter(os.Stderr, metrics, 500*time.Millisecond)
		}
	}
	parser := dflog.NewParser(sink, &ctlCallbacks{metrics: metrics})
	status, err := parser.Parse(src)
	if stopProgress != nil {
		stopProgress()
	}
	if metrics != nil {
		metrics.Stop()
	}
	if err != nil {
		fmt.Println("parse:", err)
		os.Exit(1)
	}

	if *statusOut != "" {
		b, mErr := json.MarshalIndent(status, "", "  ")
		if mErr != nil {
			fmt.Println("marshal status:", mErr)
			os.Exit(1)
		}
		if err := os.WriteFile(*statusOut, b, 0644); err != nil {
			fmt.Println("write status:", err)
			os.Exit(1)
		}
	}

	fmt.Fprintf(os.Stderr, "validRows=%d corruptFmt=%d corruptData=%d corruptTime=%d noMessageBytes=%d vehicle=%s\n",
		status.ValidRows, len(status.CorruptFmt), len(status.CorruptData), len(status.CorruptTime),
		status.NoMessageBytes, status.VehicleKind)

	if metrics != nil && *metricsFlag {
		snap := metrics.Snapshot()
		throughputBps := snap.ThroughputBytesPerSecond()
		gbPerMin := throughputBps * 60 / 1_000_000_000
		mbPerSec := throughputBps / 1_000_000
		fmt.Printf("Metrics: duration=%s processed=%s throughput=%.2f GB/min (%.2f MB/s)\n",
			snap.Duration.Round(10*time.Millisecond),
			common.FormatBytes(snap.Bytes),
			gbPerMin,
			mbPerSec,
		)
	}
}

type discardCallbacks struct{}

func (discardCallbacks) OnProgress(int64, int64) {}
func (discardCallbacks) OnError(message string) {
	common.Logf("flashgatectl: parse error: %s", message)
}

// gateCmd re-parses a log purely to obtain its Status, then evaluates
// the configured rule pack against it.
func gateCmd(args []string) {
	fs := flag.NewFlagSet("gate", flag.ExitOnError)
	in := fs.String("in", "", "input DataFlash .bin/.log file")
	rulesPath := fs.String("rules", "", "rulepack.json")
	outDiag := fs.String("out", "diagnostics.jsonl", "diagnostics output")
	outAcc := fs.String("acceptance", "acceptance_report.json", "acceptance json")
	profile := fs.String("profile", "", "profile label recorded on diagnostics")
	fs.Parse(args)

	if *in == "" || *rulesPath == "" {
		fmt.Println("required: --in, --rules")
		os.Exit(1)
	}

	f, err := os.Open(*in)
	if err != nil {
		fmt.Println("open input:", err)
		os.Exit(1)
	}
	defer f.Close()
	src, err := dflog.NewFileByteSource(f)
	if err != nil {
		fmt.Println("stat input:", err)
		os.Exit(1)
	}

	discard := ndjson.NewSink(ndjson.NewWriter(io.Discard))
	parser := dflog.NewParser(discard, discardCallbacks{})
	status, err := parser.Parse(src)
	if err != nil {
		fmt.Println("parse:", err)
		os.Exit(1)
	}

	rp, err := gate.LoadRulePack(*rulesPath)
	if err != nil {
		fmt.Println("load rulepack:", err)
		os.Exit(1)
	}
	engine := gate.NewEngine(rp)
	engine.RegisterBuiltins()

	ctx := &gate.Context{InputFile: *in, Profile: *profile, Status: &status}
	if ctx.Profile == "" {
		ctx.Profile = rp.Profile
	}
	if _, err := engine.Eval(ctx); err != nil {
		fmt.Println("eval:", err)
		os.Exit(1)
	}
	if err := engine.WriteDiagnosticsNDJSON(*outDiag); err != nil {
		fmt.Println("write diagnostics:", err)
		os.Exit(1)
	}
	rep := engine.MakeAcceptance()
	if err := report.SaveAcceptanceJSON(rep, *outAcc); err != nil {
		fmt.Println("write acceptance:", err)
		os.Exit(1)
	}
	fmt.Printf("PASS=%v, errors=%d, warnings=%d\n", rep.Summary.Pass, rep.Summary.Errors, rep.Summary.Warnings)
}

func reportCmd(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	statusPath := fs.String("status", "", "optional status.json (from parse --status) to include a parse-status section")
	accPath := fs.String("acceptance", "", "acceptance_report.json")
	manifestPath := fs.String("manifest", "", "optional manifest.json to embed as a QR code")
	pdfPath := fs.String("pdf", "", "output acceptance report PDF")
	lang := fs.String("lang", "en", "report language (en|tr)")
	fs.Parse(args)

	if *accPath == "" || *pdfPath == "" {
		fmt.Println("required: --acceptance, --pdf")
		os.Exit(1)
	}

	rep, err := report.LoadAcceptanceJSON(*accPath)
	if err != nil {
		fmt.Println("load acceptance:", err)
		os.Exit(1)
	}

	var status dflog.Status
	if *statusPath != "" {
		status, err = report.LoadStatusJSON(*statusPath)
		if err != nil {
			fmt.Println("load status:", err)
			os.Exit(1)
		}
	}

	var manifestHash string
	if *manifestPath != "" {
		manifestBytes, err := os.ReadFile(*manifestPath)
		if err != nil {
			fmt.Println("read manifest:", err)
			os.Exit(1)
		}
		sum := sha256.Sum256(manifestBytes)
		manifestHash = hex.EncodeToString(sum[:])
	}

	language, err := report.ParseLanguage(*lang)
	if err != nil {
		fmt.Println("language:", err)
		os.Exit(1)
	}
	if err := report.SavePDF(rep, status, manifestHash, *pdfPath, language); err != nil {
		fmt.Println("write pdf:", err)
		os.Exit(1)
	}
	fmt.Println("Wrote PDF:", *pdfPath)
}

func manifestCmd(args []string) {
	fs := flag.NewFlagSet("manifest", flag.ExitOnError)
	inputs := fs.String("inputs", "", "comma-separated paths")
	out := fs.String("out", "manifest.json", "output json")
	sign := fs.Bool("sign", false, "sign manifest (detached JWS over JSON)")
	keyPath := fs.String("key", "", "PEM private key for signing (requires --sign)")
	certPath := fs.String("cert", "", "PEM certificate describing signer (requires --sign)")
	jwsOut := fs.String("jws-out", "", "output JWS file (defaults to manifest path with .jws)")
	qrOut := fs.String("qr", "", "write a QR code PNG encoding the manifest's own hash")
	fs.Parse(args)

	if *inputs == "" {
		fmt.Println("required: --inputs")
		os.Exit(1)
	}

	var paths []string
	for _, p := range strings.Split(*inputs, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		fmt.Println("no input paths specified")
		os.Exit(1)
	}

	m, err := manifest.Build(paths)
	if err != nil {
		fmt.Println("manifest build:", err)
		os.Exit(1)
	}

	if !*sign {
		if err := manifest.Save(m, *out); err != nil {
			fmt.Println("manifest save:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", *out)
		if *qrOut != "" {
			unsignedPayload, _ := json.MarshalIndent(m, "", "  ")
			if err := writeManifestQR(unsignedPayload, *qrOut); err != nil {
				fmt.Println("write qr:", err)
				os.Exit(1)
			}
			fmt.Println("Wrote QR", *qrOut)
		}
		return
	}

	if *keyPath == "" || *certPath == "" {
		fmt.Println("--sign requires --key and --cert")
		os.Exit(1)
	}

	keyBytes, err := os.ReadFile(*keyPath)
	if err != nil {
		fmt.Println("read key:", err)
		os.Exit(1)
	}
	certBytes, err := os.ReadFile(*certPath)
	if err != nil {
		fmt.Println("read cert:", err)
		os.Exit(1)
	}

	sigPath := *jwsOut
	if sigPath == "" {
		base := *out
		ext := filepath.Ext(base)
		if ext != "" {
			sigPath = base[:len(base)-len(ext)] + ".jws"
		} else {
			sigPath = base + ".jws"
		}
	}

	block, _ := pem.Decode(certBytes)
	if block == nil {
		fmt.Println("parse cert: no PEM block found")
		os.Exit(1)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		fmt.Println("parse cert:", err)
		os.Exit(1)
	}

	m.Signature = &manifest.Signature{
		Type:          "jws-detached",
		CertSubject:   cert.Subject.String(),
		Issuer:        cert.Issuer.String(),
		SignatureFile: sigPath,
	}

	payload, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		fmt.Println("manifest marshal:", err)
		os.Exit(1)
	}

	jws, err := crypto.SignDetachedJWS(payload, keyBytes)
	if err != nil {
		fmt.Println("manifest sign:", err)
		os.Exit(1)
	}
	jwsBytes, err := json.MarshalIndent(jws, "", "  ")
	if err != nil {
		fmt.Println("jws marshal:", err)
		os.Exit(1)
	}

	if err := os.WriteFile(sigPath, jwsBytes, 0644); err != nil {
		fmt.Println("write jws:", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, payload, 0644); err != nil {
		fmt.Println("write manifest:", err)
		os.Exit(1)
	}

	fmt.Println("Wrote", *out)
	fmt.Println("Wrote signature", sigPath)

	if *qrOut != "" {
		if err := writeManifestQR(payload, *qrOut); err != nil {
			fmt.Println("write qr:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote QR", *qrOut)
	}
}

// writeManifestQR encodes the sha256 hash of a manifest's own serialized
// bytes into a QR code PNG, so a printed report can carry a scannable
// link back to the exact manifest content it describes.
func writeManifestQR(payload []byte, out string) error {
	sum := sha256.Sum256(payload)
	png, err := report.ManifestHashToQR(hex.EncodeToString(sum[:]), 256)
	if err != nil {
		return err
	}
	return os.WriteFile(out, png, 0644)
}

func verifySignatureCmd(args []string) {
	fs := flag.NewFlagSet("verify-signature", flag.ExitOnError)
	manifestPath := fs.String("manifest", "", "manifest JSON file")
	jwsPath := fs.String("jws", "", "manifest JWS signature file")
	certPath := fs.String("cert", "", "signer certificate (PEM)")
	fs.Parse(args)

	if *manifestPath == "" || *jwsPath == "" || *certPath == "" {
		fmt.Println("required: --manifest, --jws, --cert")
		os.Exit(1)
	}

	manifestBytes, err := os.ReadFile(*manifestPath)
	if err != nil {
		fmt.Println("read manifest:", err)
		os.Exit(1)
	}
	jwsBytes, err := os.ReadFile(*jwsPath)
	if err != nil {
		fmt.Println("read jws:", err)
		os.Exit(1)
	}
	certBytes, err := os.ReadFile(*certPath)
	if err != nil {
		fmt.Println("read cert:", err)
		os.Exit(1)
	}

	jwsObj, err := crypto.ParseDetachedJWS(jwsBytes)
	if err != nil {
		fmt.Println("parse jws:", err)
		os.Exit(1)
	}

	if err := crypto.VerifyDetachedJWS(jwsObj, manifestBytes, certBytes); err != nil {
		fmt.Println("verify signature:", err)
		os.Exit(1)
	}
	fmt.Println("Signature OK")
}
