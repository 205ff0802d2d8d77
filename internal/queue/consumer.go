package queue

import (
    "encoding/json"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// StartVerificationConsumer connects to RabbitMQ, declares the
// verification.attempted queue (durable), and starts consuming messages.
// Each event is appended to logs/verification.log in a single-line,
// human-friendly format. The function runs a reconnect loop with
// exponential backoff and keeps running indefinitely; processing errors
// are logged and the offending message rejected so the server continues
// operating.
func StartVerificationConsumer() error {
    url := brokerURL()

    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("verification-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn); err != nil {
            log.Printf("verification-consumer: consume loop ended: %v; reconnecting", err)
            time.Sleep(2 * time.Second)
            continue
        }
    }
}

func consumeLoop(conn *amqp.Connection) error {
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        verificationQueueName,
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,
    ); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    deliveries, err := ch.Consume(
        verificationQueueName,
        "",    // consumer tag
        false, // autoAck; we ack manually after the log line is written
        false, // exclusive
        false, // noLocal
        false, // noWait
        nil,
    )
    if err != nil {
        return fmt.Errorf("consume: %w", err)
    }

    for d := range deliveries {
        if err := handleDelivery(d.Body); err != nil {
            log.Printf("verification-consumer: %v", err)
            _ = d.Nack(false, false) // drop the malformed message
            continue
        }
        _ = d.Ack(false)
    }
    return fmt.Errorf("delivery channel closed")
}

// handleDelivery decodes one event and appends it to the log file.
func handleDelivery(body []byte) error {
    var ev VerificationAttemptedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal event: %w", err)
    }

    outcome := "FAILURE"
    if ev.Success {
        outcome = "SUCCESS"
    }
    line := fmt.Sprintf("%s %s code=%s employer=%d log=%d msg=%q\n",
        ev.AttemptedAt, outcome, ev.Code, ev.EmployerID, ev.AccessLogID, ev.Message)

    if err := os.MkdirAll("logs", 0o755); err != nil {
        return fmt.Errorf("create logs dir: %w", err)
    }
    f, err := os.OpenFile(filepath.Join("logs", "verification.log"),
        os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer func() { _ = f.Close() }()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log line: %w", err)
    }
    return nil
}
